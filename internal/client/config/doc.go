// Package config loads runtime configuration for the SimpleShare shell.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # File schema
//
// Intervals use timex.Duration, so they may be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "provider_kind": "remote",
//	  "data_dir": ".simpleshare",
//	  "toast_seconds": 5,
//	  "toast_tick": "1s",
//	  "log_format": "text",
//	  "log_level": "warn",
//	  "persist_blacklist": ["toaster", "account", "auth", "profile", "share"]
//	}
//
// The package does not read environment variables.
package config
