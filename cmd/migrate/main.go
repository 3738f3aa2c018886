package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/dbmigrate"
	"github.com/fdg312/nutri-coach/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.Env, cfg.LogLevel)

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: go run ./cmd/migrate [up|status|down]")
	}

	command := os.Args[1]
	switch command {
	case "up", "status", "down":
	default:
		log.Fatal().Str("command", command).Msg("unsupported command (allowed: up, status, down)")
	}

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate: no database")
	}

	if warning != "" {
		log.Warn().Msg("migrate: " + warning)
	}
	log.Info().Str("command", command).Str("using", source).Msg("migrate: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dbmigrate.Run(ctx, command, dbURL); err != nil {
		log.Fatal().Err(err).Msg("migrate: failed")
	}

	log.Info().Str("command", command).Msg("migrate: completed successfully")
}
