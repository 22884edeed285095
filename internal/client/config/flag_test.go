package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "http://gym:9090", "-s", "/tmp/g.db", "-t", "5", "-i", "20", "-r", "7", "-o", "60", "-l", "json"},
			expected: &Config{
				ServerBaseURL:            "http://gym:9090",
				StorePath:                "/tmp/g.db",
				RequestTimeout:           5 * time.Second,
				NotificationPollInterval: 20 * time.Second,
				HydrateMaxTries:          7,
				OtpResendInterval:        time.Minute,
				LogFormat:                "json",
			},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"cmd", "-x", "1", "-config", "cfg.json", "-i", "1"},
			expected: func() *Config {
				c := defaults()
				c.NotificationPollInterval = time.Second
				return c
			}(),
		},
		{name: "incorrect poll interval", args: []string{"cmd", "-i", "abc"}, wantErr: true},
		{name: "negative tries", args: []string{"cmd", "-r", "-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			cfg := defaults()
			err := parseFlags(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
