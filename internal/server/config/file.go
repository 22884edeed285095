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

// FileConfig is the on-disk shape of the backend configuration. It is only
// used for decoding; non-zero fields are copied into Config.
type FileConfig struct {
	ListenAddr    string         `json:"listen_addr" yaml:"listen_addr"`
	SecretKey     string         `json:"secret_key" yaml:"secret_key"`
	TokenValidity timex.Duration `json:"token_validity" yaml:"token_validity"`
	OtpValidity   timex.Duration `json:"otp_validity" yaml:"otp_validity"`
	DatabaseDSN   string         `json:"database_dsn" yaml:"database_dsn"`
	LogFormat     string         `json:"log_format" yaml:"log_format"`
}

// parseFile loads the file named by -c/-config, if any, into config.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if c.ListenAddr != "" {
		config.ListenAddr = c.ListenAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidity.Duration > 0 {
		config.TokenValidity = c.TokenValidity.Duration
	}
	if c.OtpValidity.Duration > 0 {
		config.OtpValidity = c.OtpValidity.Duration
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.LogFormat != "" {
		config.LogFormat = c.LogFormat
	}
	return nil
}
