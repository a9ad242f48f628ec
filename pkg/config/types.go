// Package config hosts Metis's layered process configuration: a koanf-backed
// loader that merges defaults, file, and environment sources into a single
// Config, plus a Manager that watches the winning file source for changes
// and an fsnotify-backed Watcher used by Components 4 (Config Watchers).
package config

import "time"

// Mode selects the storage/backing strategy a component resolves to when it
// has no explicit override: in-memory only, a local persistent store, or a
// distributed/remote backend.
const (
	ModeMemory         = "memory"
	ModePersistent      = "persistent"
	ModeDistributed     = "distributed"
	ModeRemoteTemporal  = "remote_temporal"
	ModeStandalone      = "standalone"
)

const mcpProxyModeStandalone = ModeStandalone

const (
	databaseDriverSQLite   = "sqlite"
	databaseDriverPostgres = "postgres"
)

// Config is the root process configuration, assembled by Service.Load from
// layered sources (defaults -> file -> environment -> CLI flags).
type Config struct {
	Mode string `json:"mode,omitempty" mapstructure:"mode,omitempty"`

	Server   ServerConfig   `json:"server"   mapstructure:"server"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Temporal TemporalConfig `json:"temporal" mapstructure:"temporal"`
	Runtime  RuntimeConfig  `json:"runtime"  mapstructure:"runtime"`
	Limits   LimitsConfig   `json:"limits"   mapstructure:"limits"`
	Memory   MemoryConfig   `json:"memory"   mapstructure:"memory"`
	Cache    CacheConfig    `json:"cache"    mapstructure:"cache"`
	Redis    RedisConfig    `json:"redis"    mapstructure:"redis"`
	MCPProxy MCPProxyConfig `json:"mcp_proxy" mapstructure:"mcp_proxy"`
	LLM      LLMConfig      `json:"llm"      mapstructure:"llm"`
	OpenAI   OpenAIConfig   `json:"openai"   mapstructure:"openai"`
}

// ServerConfig configures the HTTP/MCP front end the mock server listens on.
type ServerConfig struct {
	Host        string        `json:"host"         mapstructure:"host"`
	Port        int           `json:"port"          mapstructure:"port"`
	CORSEnabled bool          `json:"cors_enabled"  mapstructure:"cors_enabled"`
	Timeout     time.Duration `json:"timeout"       mapstructure:"timeout"`
}

// DatabaseConfig configures the SQL target used by Data Lake Storage and the
// SQL Query Layer. Driver may be left empty to let EffectiveDatabaseDriver
// pick one from Mode.
type DatabaseConfig struct {
	ConnString string `json:"conn_string,omitempty" mapstructure:"conn_string,omitempty"`
	Host       string `json:"host"                  mapstructure:"host"`
	Port       string `json:"port"                  mapstructure:"port"`
	User       string `json:"user"                  mapstructure:"user"`
	DBName     string `json:"dbname"                mapstructure:"dbname"`
	SSLMode    string `json:"sslmode"               mapstructure:"sslmode"`
	Driver     string `json:"driver,omitempty"      mapstructure:"driver,omitempty"`
}

// TemporalConfig configures the workflow-engine backend used when a
// workflow's execution mode resolves to something other than in-process.
type TemporalConfig struct {
	HostPort  string `json:"host_port" mapstructure:"host_port"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
	TaskQueue string `json:"task_queue" mapstructure:"task_queue"`
	Mode      string `json:"mode,omitempty" mapstructure:"mode,omitempty"`
}

// RuntimeConfig configures ambient process behavior: environment label, log
// level, and the dispatcher heartbeat/async-counter tuning knobs.
type RuntimeConfig struct {
	Environment                 string        `json:"environment" mapstructure:"environment"`
	LogLevel                    string        `json:"log_level"   mapstructure:"log_level"`
	DispatcherHeartbeatInterval time.Duration `json:"dispatcher_heartbeat_interval" mapstructure:"dispatcher_heartbeat_interval"`
	DispatcherHeartbeatTTL      time.Duration `json:"dispatcher_heartbeat_ttl"      mapstructure:"dispatcher_heartbeat_ttl"`
	DispatcherStaleThreshold    time.Duration `json:"dispatcher_stale_threshold"    mapstructure:"dispatcher_stale_threshold"`
	AsyncTokenCounterWorkers    int           `json:"async_token_counter_workers"   mapstructure:"async_token_counter_workers"`
	AsyncTokenCounterBufferSize int           `json:"async_token_counter_buffer_size" mapstructure:"async_token_counter_buffer_size"`
}

// LimitsConfig bounds the sizes and depths spec.md's guard rails enforce
// (nesting depth, string/content lengths, task context depth).
type LimitsConfig struct {
	MaxNestingDepth       int `json:"max_nesting_depth"        mapstructure:"max_nesting_depth"`
	MaxStringLength       int `json:"max_string_length"        mapstructure:"max_string_length"`
	MaxMessageContent     int `json:"max_message_content"      mapstructure:"max_message_content"`
	MaxTotalContentSize   int `json:"max_total_content_size"   mapstructure:"max_total_content_size"`
	MaxTaskContextDepth   int `json:"max_task_context_depth"   mapstructure:"max_task_context_depth"`
	ParentUpdateBatchSize int `json:"parent_update_batch_size" mapstructure:"parent_update_batch_size"`
}

// MemoryConfig configures the conversation store's key prefix, entry TTL,
// and bound on the number of retained entries.
type MemoryConfig struct {
	Prefix     string        `json:"prefix"      mapstructure:"prefix"`
	TTL        time.Duration `json:"ttl"         mapstructure:"ttl"`
	MaxEntries int           `json:"max_entries" mapstructure:"max_entries"`
}

// CacheConfig configures the response/schema cache, kept separate from the
// Redis connection settings it may be backed by.
type CacheConfig struct {
	Enabled              bool          `json:"enabled"               mapstructure:"enabled"`
	TTL                  time.Duration `json:"ttl"                   mapstructure:"ttl"`
	Prefix               string        `json:"prefix"                mapstructure:"prefix"`
	MaxItemSize          int64         `json:"max_item_size"         mapstructure:"max_item_size"`
	CompressionEnabled   bool          `json:"compression_enabled"   mapstructure:"compression_enabled"`
	CompressionThreshold int64         `json:"compression_threshold" mapstructure:"compression_threshold"`
	EvictionPolicy       string        `json:"eviction_policy"       mapstructure:"eviction_policy"`
	StatsInterval        time.Duration `json:"stats_interval"        mapstructure:"stats_interval"`
	KeyScanCount         int           `json:"key_scan_count"        mapstructure:"key_scan_count"`
}

// RedisConfig configures the connection used by conversation-store and cache
// components when their effective mode resolves to persistent/distributed.
type RedisConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port string `json:"port" mapstructure:"port"`
	Mode string `json:"mode,omitempty" mapstructure:"mode,omitempty"`
}

// MCPProxyConfig configures the standalone MCP proxy process Metis can front
// its mock tool/server definitions with.
type MCPProxyConfig struct {
	Mode    string `json:"mode"             mapstructure:"mode"`
	Host    string `json:"host"             mapstructure:"host"`
	Port    int    `json:"port"             mapstructure:"port"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url,omitempty"`
}

// LLMConfig configures the LLM Provider Abstraction's ambient behavior, in
// particular how long agent runtime waits for an MCP server dependency to
// become ready before giving up.
type LLMConfig struct {
	MCPReadinessTimeout      time.Duration `json:"mcp_readiness_timeout"       mapstructure:"mcp_readiness_timeout"`
	MCPReadinessPollInterval time.Duration `json:"mcp_readiness_poll_interval" mapstructure:"mcp_readiness_poll_interval"`
}

// OpenAIConfig configures the OpenAI-compatible LLM back-end's default
// credentials and model, overridable per-agent at the provider layer.
type OpenAIConfig struct {
	APIKey       SensitiveString `json:"api_key,omitempty" mapstructure:"api_key,omitempty"`
	DefaultModel string          `json:"default_model,omitempty" mapstructure:"default_model,omitempty"`
}
