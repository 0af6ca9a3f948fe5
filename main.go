package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type Config struct {
	StorageDir    string
	Port          int
	RegistrarName string
	TokenTTL      time.Duration
	TokenLength   int
	KidLength     int
	LogLevel      string
	PurgeInterval time.Duration
}

var config Config

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ott-ttl must be positive, got %v", c.TokenTTL)
	}
	if c.TokenLength <= 0 {
		return fmt.Errorf("ott-length must be positive, got %d", c.TokenLength)
	}
	if c.KidLength <= 0 {
		return fmt.Errorf("kid-length must be positive, got %d", c.KidLength)
	}
	if c.PurgeInterval <= 0 {
		return fmt.Errorf("purge-interval must be positive, got %v", c.PurgeInterval)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "registrar",
	Short:         "Voter registrar: admission tokens, ballot numbers and the public ballot ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.IntVar(&config.KidLength, "kid-length", 20, "Number of random bytes in generated key ids")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := newLogger()
		logger.Fatal().Err(err).Msg("registrar failed")
	}
}
