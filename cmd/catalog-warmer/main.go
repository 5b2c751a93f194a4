package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/internal/cron"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
	"github.com/angelmondragon/ordering-backend/pkg/redis"
	"github.com/angelmondragon/ordering-backend/pkg/square"
)

const lockKeyFormat = "ordering:catalog-warmer:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "catalog-warmer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "catalog-warmer",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"square_env": cfg.Square.Environment(),
	})

	// Without credentials there is nothing to warm.
	squareClient, err := square.NewClient(ctx, cfg.Square, logg, nil)
	if err != nil {
		logg.Error(ctx, "square client unavailable", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	catalogService, err := catalog.NewService(catalog.Deps{
		Source: squareClient,
		Store:  kv.NewRedis(redisClient, logg),
		Keys:   redisClient,
		Logger: logg,
	}, cfg.Catalog.CacheTTL)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	job, err := cron.NewCatalogRefreshJob(catalogService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create refresh job", err)
		os.Exit(1)
	}
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Catalog.WarmInterval)
	if err != nil {
		logg.Error(ctx, "failed to create warmer lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     []cron.Job{job},
		Lock:     lock,
		Metrics:  metrics.NewWarmerMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Catalog.WarmInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create warmer", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting catalog warmer")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "catalog warmer stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "catalog warmer shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
