package config

// ResolveMode returns componentMode if set, else cfg's global Mode, else
// ModeMemory. It is the single precedence rule every Effective*Mode helper
// below builds on.
func ResolveMode(cfg *Config, componentMode string) string {
	if componentMode != "" {
		return componentMode
	}
	if cfg == nil || cfg.Mode == "" {
		return ModeMemory
	}
	return cfg.Mode
}

// EffectiveRedisMode resolves the Redis-backed components' mode, letting
// Redis.Mode override the global Mode.
func (c *Config) EffectiveRedisMode() string {
	if c == nil {
		return ModeMemory
	}
	return ResolveMode(c, c.Redis.Mode)
}

// EffectiveTemporalMode resolves the workflow engine's execution mode.
// A resolved ModeDistributed maps onto ModeRemoteTemporal, since "distributed"
// for the workflow engine specifically means a remote Temporal cluster.
func (c *Config) EffectiveTemporalMode() string {
	global := ModeMemory
	componentMode := ""
	if c != nil {
		if c.Mode != "" {
			global = c.Mode
		}
		componentMode = c.Temporal.Mode
	}
	effective := global
	if componentMode != "" {
		effective = componentMode
	}
	if effective == ModeDistributed {
		return ModeRemoteTemporal
	}
	return effective
}

// EffectiveMCPProxyMode resolves the MCP proxy's mode, letting
// MCPProxy.Mode override the global Mode.
func (c *Config) EffectiveMCPProxyMode() string {
	if c == nil {
		return ModeMemory
	}
	return ResolveMode(c, c.MCPProxy.Mode)
}

// EffectiveDatabaseDriver resolves the SQL driver for the Data Lake Storage
// database target: an explicit Database.Driver always wins, otherwise
// ModeDistributed selects postgres and every other mode selects sqlite.
func (c *Config) EffectiveDatabaseDriver() string {
	if c == nil {
		return databaseDriverSQLite
	}
	if c.Database.Driver != "" {
		return c.Database.Driver
	}
	mode := c.Mode
	if mode == "" {
		mode = ModeMemory
	}
	if mode == ModeDistributed {
		return databaseDriverPostgres
	}
	return databaseDriverSQLite
}
