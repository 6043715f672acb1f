// Package config loads runtime configuration for the profilekeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml or .yml are read as YAML, everything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   host:port of the remote document store; empty uses an in-process store
//	-d string   SQLite DSN of the local database
//	-s string   secret that verifies external credentials
//	-b string   log backend (slog or zap)
//	-l string   log level (debug, info, warn, error)
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "1s" or
// integer nanoseconds:
//
//	{
//	  "database_dsn": "data/profilekeeper.db",
//	  "remote_endpoint_addr": "127.0.0.1:50051",
//	  "stale_time": "5m",
//	  "cache_time": "30m",
//	  "debounce_interval": "1s",
//	  "pacing_duration": "2.5s"
//	}
//
// Fields missing from the file keep their earlier values.
package config
