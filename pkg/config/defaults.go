package config

import "time"

// Default returns the baseline configuration every Service.Load call starts
// from before file/env/CLI sources are layered on top.
func Default() *Config {
	return &Config{
		Mode: ModeMemory,
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5001,
			CORSEnabled: true,
			Timeout:     30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "compozy",
			SSLMode: "disable",
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "compozy-tasks",
		},
		Runtime: RuntimeConfig{
			Environment:                 "development",
			LogLevel:                    "info",
			DispatcherHeartbeatInterval: 30 * time.Second,
			DispatcherHeartbeatTTL:      90 * time.Second,
			DispatcherStaleThreshold:    120 * time.Second,
			AsyncTokenCounterWorkers:    4,
			AsyncTokenCounterBufferSize: 100,
		},
		Limits: LimitsConfig{
			MaxNestingDepth:       20,
			MaxStringLength:       10485760,
			MaxMessageContent:     10240,
			MaxTotalContentSize:   102400,
			MaxTaskContextDepth:   5,
			ParentUpdateBatchSize: 100,
		},
		Memory: MemoryConfig{
			Prefix:     "compozy:memory:",
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
		},
		Cache: CacheConfig{
			Enabled:              true,
			TTL:                  24 * time.Hour,
			Prefix:               "compozy:cache:",
			MaxItemSize:          1048576,
			CompressionEnabled:   true,
			CompressionThreshold: 1024,
			EvictionPolicy:       "lru",
			StatsInterval:        5 * time.Minute,
			KeyScanCount:         100,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		MCPProxy: MCPProxyConfig{
			Mode: mcpProxyModeStandalone,
			Host: "127.0.0.1",
			Port: 6001,
		},
		LLM: LLMConfig{
			MCPReadinessTimeout:      10 * time.Second,
			MCPReadinessPollInterval: 250 * time.Millisecond,
		},
	}
}
