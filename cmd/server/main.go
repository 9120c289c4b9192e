package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/cardshop/internal/app"
	"github.com/utafrali/cardshop/internal/config"
	"github.com/utafrali/cardshop/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("cardshop", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting card shop",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("default_product", cfg.DefaultProduct),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
		slog.Bool("catalog_cache_enabled", cfg.CatalogCacheEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("card shop stopped")
	return nil
}
