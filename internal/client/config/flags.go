package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend
//	-s string   path of the local credential store
//	-t int      request timeout in seconds
//	-i int      notification poll interval in seconds
//	-r uint     hydrate attempts while the backend is unreachable
//	-o int      OTP resend interval in seconds
//	-l string   log format: text, json or zerolog
//
// Note: os.Args is filtered with flagx.FilterArgs first, so flags that belong
// to other components do not break parsing.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t", "-i", "-r", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the gym backend")
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "path of the local credential store")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	pollInterval := fs.Int("i", int(cfg.NotificationPollInterval.Seconds()), "notification poll interval (in seconds)")
	fs.UintVar(&cfg.HydrateMaxTries, "r", cfg.HydrateMaxTries, "profile fetch attempts at startup")
	otpInterval := fs.Int("o", int(cfg.OtpResendInterval.Seconds()), "otp resend interval (in seconds)")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format: text, json or zerolog")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.NotificationPollInterval = time.Duration(*pollInterval) * time.Second
	cfg.OtpResendInterval = time.Duration(*otpInterval) * time.Second
	return nil
}
