package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/daniacca/bondsim/internal/chem"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	ConfigFile         string
	SnapshotFile       string
	AutosavePath       string
	AutosaveEveryTicks int
	TickIntervalMs     int
	LogLevel           string
	Development        bool
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "BONDSIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "config",
			envVarName:  "BONDSIM_CONFIG",
			defaultVal:  "",
			description: "optional path to a TOML engine config file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.ConfigFile = v },
		},
		{
			flagName:    "snapshot-file",
			envVarName:  "BONDSIM_SNAPSHOT_FILE",
			defaultVal:  "",
			description: "optional path to a JSON snapshot to restore at startup",
			setter:      func(c *ServerConfig, v string) { c.SnapshotFile = v },
		},
		{
			flagName:    "autosave",
			envVarName:  "BONDSIM_AUTOSAVE",
			defaultVal:  "",
			description: "path where periodic snapshots are written; empty disables autosave",
			setter:      func(c *ServerConfig, v string) { c.AutosavePath = v },
		},
		{
			flagName:    "autosave-every-ticks",
			envVarName:  "BONDSIM_AUTOSAVE_EVERY_TICKS",
			defaultVal:  "1000",
			description: "How often to write snapshots (in number of ticks); 0 disables periodic snapshots",
			setter: func(c *ServerConfig, v string) {
				// Parse int value, with error handling
				if val, err := strconv.Atoi(v); err == nil {
					c.AutosaveEveryTicks = val
				} else {
					log.Printf("Invalid value for autosave-every-ticks: %s, using default 1000", v)
					c.AutosaveEveryTicks = 1000
				}
			},
		},
		{
			flagName:    "tick-interval",
			envVarName:  "BONDSIM_TICK_INTERVAL_MS",
			defaultVal:  "50",
			description: "simulation tick interval in milliseconds when started via /start",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil && val > 0 {
					c.TickIntervalMs = val
				} else {
					log.Printf("Invalid value for tick-interval: %s, using default 50", v)
					c.TickIntervalMs = 50
				}
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "BONDSIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
		{
			flagName:    "dev",
			envVarName:  "BONDSIM_DEV",
			defaultVal:  "",
			description: "use the development (console) log encoder; any non-empty value enables it",
			setter:      func(c *ServerConfig, v string) { c.Development = v != "" },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// loadEngineConfig reads a TOML engine configuration file. Values not
// present in the file keep their defaults.
func loadEngineConfig(path string) (chem.Config, error) {
	cfg := chem.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return chem.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return chem.Config{}, err
	}
	return cfg, nil
}

// loadSnapshotFile reads and validates a snapshot file written by the
// autosave path or the /snapshot endpoint.
func loadSnapshotFile(path string) (chem.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chem.Snapshot{}, err
	}
	return chem.DecodeSnapshotJSON(data)
}

// writeSnapshotFile persists a snapshot as JSON. Used by the periodic
// autosave in the run loop.
func writeSnapshotFile(path string, s chem.Snapshot) error {
	data, err := chem.EncodeSnapshotJSON(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
