package config

import (
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/logging"
)

// Config holds runtime settings for the gym terminal client.
//
// Fields:
//   - ServerBaseURL: base URL of the gym REST backend.
//   - StorePath: SQLite file that keeps the credential between runs.
//   - RequestTimeout: upper bound for a single backend call.
//   - NotificationPollInterval: how often notifications are listed while logged in.
//   - HydrateMaxTries: attempts at the boot-time profile fetch when the backend is unreachable.
//   - OtpResendInterval: minimum gap between two one-time-code requests.
//   - LogFormat: text, json or zerolog.
type Config struct {
	ServerBaseURL            string
	StorePath                string
	RequestTimeout           time.Duration
	NotificationPollInterval time.Duration
	HydrateMaxTries          uint
	OtpResendInterval        time.Duration
	LogFormat                string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.StorePath = "gymkeeper.db"
	c.RequestTimeout = 10 * time.Second
	c.NotificationPollInterval = 10 * time.Second
	c.HydrateMaxTries = 3
	c.OtpResendInterval = 30 * time.Second
	c.LogFormat = logging.FormatText
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
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
