package config

import (
	"fmt"
	"strconv"
	"strings"
)

var validEnvironments = map[string]bool{"development": true, "staging": true, "production": true}
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validateConfig runs every business-rule check over cfg, accumulating
// issues rather than stopping at the first one so callers see the full
// picture in a single error.
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	var issues []string

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		issues = append(issues, "server.port must be between 1 and 65535")
	}
	if !validEnvironments[cfg.Runtime.Environment] {
		issues = append(issues, "runtime.environment must be one of development, staging, production")
	}
	if !validLogLevels[cfg.Runtime.LogLevel] {
		issues = append(issues, "runtime.log_level must be one of debug, info, warn, error")
	}
	if cfg.MCPProxy.Mode == mcpProxyModeStandalone && cfg.MCPProxy.Port == 0 {
		issues = append(issues, "mcp_proxy.port must be non-zero in standalone mode")
	}

	if cfg.Limits.MaxNestingDepth <= 0 {
		issues = append(issues, "limits.max_nesting_depth must be positive")
	}
	if cfg.Limits.MaxStringLength <= 0 {
		issues = append(issues, "limits.max_string_length must be positive")
	}
	if cfg.Limits.MaxMessageContent <= 0 {
		issues = append(issues, "limits.max_message_content must be positive")
	}
	if cfg.Runtime.AsyncTokenCounterWorkers <= 0 {
		issues = append(issues, "runtime.async_token_counter_workers must be positive")
	}

	if cfg.Runtime.DispatcherHeartbeatTTL <= cfg.Runtime.DispatcherHeartbeatInterval {
		issues = append(issues, "dispatcher heartbeat TTL must be greater than heartbeat interval")
	}
	if cfg.Runtime.DispatcherStaleThreshold <= cfg.Runtime.DispatcherHeartbeatTTL {
		issues = append(issues, "dispatcher stale threshold must be greater than heartbeat TTL")
	}

	if cfg.Database.ConnString == "" {
		if cfg.Database.Host == "" {
			issues = append(issues, "database.host is required when conn_string is not set")
		}
		if cfg.Database.Port == "" {
			issues = append(issues, "database.port is required when conn_string is not set")
		}
		if cfg.Database.User == "" {
			issues = append(issues, "database.user is required when conn_string is not set")
		}
		if cfg.Database.DBName == "" {
			issues = append(issues, "database.dbname is required when conn_string is not set")
		}
	}

	if cfg.Temporal.HostPort == "" {
		issues = append(issues, "temporal.host_port is required")
	}

	if cfg.Redis.Port != "" {
		port, err := strconv.Atoi(cfg.Redis.Port)
		if err != nil {
			issues = append(issues, "Redis port must be a valid integer")
		} else if port < 1 || port > 65535 {
			issues = append(issues, "Redis port must be between 1 and 65535")
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(issues, "; "))
}
