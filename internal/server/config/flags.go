package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/flagx"
)

// parseFlags populates selected backend Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   listen address (e.g., ":8080")
//	-k string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-o int      one-time code validity, minutes
//	-d string   SQLite database path; empty keeps accounts in memory
//	-l string   log format: text, json or zerolog
//
// Duration flags are accepted as integers in minutes and then converted
// to time.Duration values.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-t", "-o", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "k", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidity.Minutes()), "token validity (in minutes)")
	otpValidity := fs.Int("o", int(config.OtpValidity.Minutes()), "otp validity (in minutes)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database path")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.TokenValidity = time.Duration(*tokenValidity) * time.Minute
	config.OtpValidity = time.Duration(*otpValidity) * time.Minute
	return nil
}
