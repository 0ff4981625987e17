package main

import (
	"context"
	"os"

	"lojavirtual/internal/config"
	"lojavirtual/internal/db"
	"lojavirtual/internal/logging"
	productrepo "lojavirtual/internal/repository/product"
	userrepo "lojavirtual/internal/repository/user"
	"lojavirtual/internal/seed"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		bootLogger := logging.New(os.Stderr, "", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Component(logging.New(os.Stdout, cfg.Env, cfg.LogLevel), "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, &logger), userrepo.NewPostgres(pool), logger); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}
	logger.Info().Msg("seed applied")
}
