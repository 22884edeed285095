// Package config loads runtime configuration for the gym terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in .yaml
//     or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend
//	-s string   local credential store path
//	-t int      request timeout (seconds)
//	-i int      notification poll interval (seconds)
//	-r uint     hydrate attempts
//	-o int      OTP resend interval (seconds)
//	-l string   log format
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080",
//	  "store_path": "gymkeeper.db",
//	  "request_timeout": "10s",
//	  "notification_poll_interval": "10s",
//	  "hydrate_max_tries": 3,
//	  "otp_resend_interval": "30s",
//	  "log_format": "json"
//	}
//
// Note: This package does not read environment variables directly.
package config
