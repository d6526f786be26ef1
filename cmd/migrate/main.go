package main

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/Learn-Trical-23/EE-24/internal/config"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/logging"
)

func main() {
	direction := pflag.String("direction", "up", "migration direction: up or down")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "development")
		bootLog.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(cfg.LogLevel, cfg.Env)

	if err := db.Migrate(cfg.DatabaseURL, *direction); err != nil {
		logger.Error().Err(err).Str("direction", *direction).Msg("migration failed")
		os.Exit(1)
	}
	logger.Info().Str("direction", *direction).Msg("migrations applied")
}
