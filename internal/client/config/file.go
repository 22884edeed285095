package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gymkeeper/internal/flagx"
	"github.com/dmitrijs2005/gymkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for decoding config files. Durations
// use timex.Duration so files may say "10s" or give integer nanoseconds.
// Zero values mean "not set" and leave the current value alone.
type FileConfig struct {
	ServerBaseURL            string         `json:"server_base_url" yaml:"server_base_url"`
	StorePath                string         `json:"store_path" yaml:"store_path"`
	RequestTimeout           timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	NotificationPollInterval timex.Duration `json:"notification_poll_interval" yaml:"notification_poll_interval"`
	HydrateMaxTries          uint           `json:"hydrate_max_tries" yaml:"hydrate_max_tries"`
	OtpResendInterval        timex.Duration `json:"otp_resend_interval" yaml:"otp_resend_interval"`
	LogFormat                string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays cfg with the file named by -c/-config. Files ending in
// .yaml or .yml are YAML, anything else is JSON.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerBaseURL != "" {
		cfg.ServerBaseURL = fc.ServerBaseURL
	}
	if fc.StorePath != "" {
		cfg.StorePath = fc.StorePath
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.NotificationPollInterval.Duration > 0 {
		cfg.NotificationPollInterval = fc.NotificationPollInterval.Duration
	}
	if fc.HydrateMaxTries > 0 {
		cfg.HydrateMaxTries = fc.HydrateMaxTries
	}
	if fc.OtpResendInterval.Duration > 0 {
		cfg.OtpResendInterval = fc.OtpResendInterval.Duration
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
}
