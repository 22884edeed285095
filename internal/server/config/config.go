// Package config handles configuration for the development backend,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/logging"
)

// Config holds runtime settings for the gymkeeper development backend.
//
// Fields:
//   - ListenAddr: bind address of the REST endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - TokenValidity: lifetime of an issued access token.
//   - OtpValidity: lifetime of a one-time login code.
//   - DatabaseDSN: SQLite database for accounts; empty keeps them in memory.
//   - LogFormat: text, json or zerolog.
type Config struct {
	ListenAddr    string
	SecretKey     string
	TokenValidity time.Duration
	OtpValidity   time.Duration
	DatabaseDSN   string
	LogFormat     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.SecretKey = "secretKey"
	c.TokenValidity = 60 * time.Minute
	c.OtpValidity = 5 * time.Minute
	c.LogFormat = logging.FormatJSON
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
