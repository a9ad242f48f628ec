package core

import (
	"os"
	"path/filepath"
)

func GetVersion() string {
	if version := os.Getenv("METIS_VERSION"); version != "" {
		return version
	}
	return "v0"
}

func GetStoreDir(cwd string) string {
	if cwd == "" {
		return ".metis"
	}
	return filepath.Join(cwd, ".metis")
}

// -----------------------------------------------------------------------------
// Component Type
// -----------------------------------------------------------------------------

// ComponentType names the kind of registered entity a log line, metric, or
// error detail refers to.
type ComponentType string

const (
	ComponentWorkflow      ComponentType = "workflow"
	ComponentTask          ComponentType = "task"
	ComponentAgent         ComponentType = "agent"
	ComponentTool          ComponentType = "tool"
	ComponentResource      ComponentType = "resource"
	ComponentPrompt        ComponentType = "prompt"
	ComponentSchema        ComponentType = "schema"
	ComponentMcpServer     ComponentType = "mcp_server"
	ComponentOrchestration ComponentType = "orchestration"
	ComponentLog           ComponentType = "log"
)

// -----------------------------------------------------------------------------
// Workflow step status
// -----------------------------------------------------------------------------

// StatusType is the workflow step state-machine vocabulary: every step moves
// Pending -> Ready -> Running -> {Completed|Failed|Skipped}.
type StatusType string

const (
	StatusPending   StatusType = "PENDING"
	StatusReady     StatusType = "READY"
	StatusRunning   StatusType = "RUNNING"
	StatusCompleted StatusType = "COMPLETED"
	StatusFailed    StatusType = "FAILED"
	StatusSkipped   StatusType = "SKIPPED"
)

func (s StatusType) IsValid() bool {
	switch s {
	case StatusPending, StatusReady, StatusRunning, StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

func (s StatusType) String() string {
	return string(s)
}

// Terminal reports whether a step in this status will not transition further.
func (s StatusType) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Sources
// -----------------------------------------------------------------------------

// SourceType identifies the subsystem that produced a log entry or error,
// surfaced in structured log fields for filtering.
type SourceType string

const (
	SourceMcpServer    SourceType = "mcpserver.Dispatcher"
	SourceWorkflow     SourceType = "workflow.Engine"
	SourceAgent        SourceType = "agent.Runtime"
	SourceMockEngine   SourceType = "mockengine.Engine"
	SourceDataLake     SourceType = "datalake.Store"
	SourceSQLQuery     SourceType = "sqlquery.Registry"
	SourceOrchestrator SourceType = "orchestration.Scheduler"
)

func (s SourceType) String() string {
	return string(s)
}
