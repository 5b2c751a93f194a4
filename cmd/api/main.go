package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/ordering-backend/api/routes"
	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/internal/preferences"
	squarewebhook "github.com/angelmondragon/ordering-backend/internal/webhooks/square"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
	"github.com/angelmondragon/ordering-backend/pkg/redis"
	"github.com/angelmondragon/ordering-backend/pkg/square"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookEventTTL = 72 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	store := kv.NewRedis(redisClient, logg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderingMetrics := metrics.NewOrderingMetrics(registry)

	// A missing Square setup still boots; the payment and catalog routes
	// answer "server misconfigured" until credentials are provided.
	var (
		gateway orders.Gateway
		source  catalog.Source
	)
	squareClient, err := square.NewClient(ctx, cfg.Square, logg, orderingMetrics)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "square client unavailable")
	} else {
		gateway = squareClient
		source = squareClient
	}

	ordersService, err := orders.NewService(gateway, cfg.Ordering.PrepTime, orderingMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.Deps{
		Source:  source,
		Store:   store,
		Keys:    redisClient,
		Metrics: orderingMetrics,
		Logger:  logg,
	}, cfg.Catalog.CacheTTL)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(store, redisClient, cart.UUIDs{}, cart.PricingFromConfig(cfg.Ordering), cfg.Ordering.CartTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(store, redisClient, preferences.SettingsFromConfig(cfg.Ordering))
	if err != nil {
		logg.Error(ctx, "failed to create preferences service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		Cart:        cartService,
		Preferences: preferencesService,
		Orders:      ordersService,
		Store:       store,
		Locker:      store,
		Keys:        redisClient,
		Metrics:     orderingMetrics,
		Logger:      logg,
	}, checkout.SettingsFromConfig(cfg.Ordering))
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := squarewebhook.NewService(catalogService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create square webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := squarewebhook.NewGuard(redisClient, webhookEventTTL, "square-webhook")
	if err != nil {
		logg.Error(ctx, "failed to create square webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   id,
		"square_env": cfg.Square.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			registry,
			catalogService,
			ordersService,
			cartService,
			preferencesService,
			checkoutService,
			webhookService,
			webhookGuard,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
