package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lojavirtual/internal/config"
	"lojavirtual/internal/db"
	"lojavirtual/internal/importer"
	"lojavirtual/internal/logging"
	productrepo "lojavirtual/internal/repository/product"
	productsvc "lojavirtual/internal/service/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the product catalog CSV")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		bootLogger := logging.New(os.Stderr, "", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Component(logging.New(os.Stderr, cfg.Env, cfg.LogLevel), "importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Str("file", filePath).Msg("open file")
	}
	defer f.Close()

	// Rows go through the product service so they get the same checks as
	// the admin endpoint.
	imp := importer.NewCSVImporter(f, productsvc.New(productrepo.NewPostgres(pool, &logger)))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Int("imported", count).Msg("import failed")
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
