package main

import (
	"context"
	"flag"
	"os"

	"lojavirtual/internal/config"
	"lojavirtual/internal/db"
	"lojavirtual/internal/logging"
	"lojavirtual/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying all")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		bootLogger := logging.New(os.Stderr, "", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Component(logging.New(os.Stdout, cfg.Env, cfg.LogLevel), "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down {
		if err := migrate.Rollback(ctx, pool, logger); err != nil {
			logger.Fatal().Err(err).Msg("rollback migration")
		}
		logger.Info().Msg("migration rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")
}
