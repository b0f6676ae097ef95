package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"configurator/internal/api"
	"configurator/internal/freshness"
	"configurator/internal/instance"
	"configurator/internal/metrics"
	"configurator/internal/service"
	"configurator/internal/settings"
	"configurator/pkg/core"
	"configurator/pkg/exchange"
	"configurator/pkg/exchange/binance"
	"configurator/pkg/exchange/bybit"
)

func main() {
	configPath := flag.String("config", "configurator.toml", "path to the TOML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "configurator: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exchanges, err := registerExchanges(cfg.Venue, logger)
	if err != nil {
		return err
	}
	defer exchanges.Close()

	store, err := newFreshnessStore(ctx, cfg.Freshness)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	collector := service.NewCollector(exchanges, store, service.Config{
		Layout: instance.Layout{
			Root:           cfg.Data.ConfigsPath,
			AssetsFilename: cfg.Data.AssetsFilename,
			HeaderFilename: cfg.Data.HeaderFilename,
			SectionsDir:    cfg.Data.SectionsDir,
		},
		Node:              cfg.Data.Default.Node,
		Algo:              cfg.Data.Default.Algo,
		Event:             cfg.Endpoint.Event,
		Fresh:             service.Status(cfg.Endpoint.Fresh),
		NoFresh:           service.Status(cfg.Endpoint.NoFresh),
		OrderBookDepth:    cfg.Venue.OrderBookDepth,
		RefineConcurrency: cfg.Venue.RefineConcurrency,
	}, service.WithLogger(logger), service.WithMetrics(m))

	gin.SetMode(cfg.Server.Mode)
	server := api.New(collector, api.Config{
		DefaultRoutesMaxLength: cfg.Routes.DefaultMaxLength,
		RoutesMaxLengthLimit:   cfg.Routes.MaxLengthLimit,
	}, api.WithLogger(logger), api.WithMetrics(m))

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Strs("exchanges", exchanges.Names()).
			Str("configs_path", cfg.Data.ConfigsPath).
			Msg("configurator listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg settings.Log) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}

func venueConfig(name string, v settings.Venue) *core.Config {
	config := core.DefaultConfig(name).
		WithSandbox(v.Sandbox).
		WithTimeout(v.Timeout).
		WithRateLimit(v.RateLimitRequests, v.RateLimitPeriod)
	config.MaxRetries = v.MaxRetries
	config.CircuitBreakerEnabled = v.CircuitBreakerEnabled
	config.CircuitBreakerFailThreshold = v.CircuitBreakerFailThreshold
	config.CircuitBreakerSuccessThreshold = v.CircuitBreakerSuccessThreshold
	config.CircuitBreakerTimeout = v.CircuitBreakerTimeout
	return config
}

func registerExchanges(v settings.Venue, logger zerolog.Logger) (*exchange.Container, error) {
	container := exchange.NewContainer()

	binanceConfig := venueConfig("binance", v)
	binanceConfig.DepthStream = v.BinanceDepthStream
	if err := binance.Register(container, binanceConfig, binance.WithLogger(logger)); err != nil {
		return nil, err
	}

	if err := bybit.Register(container, venueConfig("bybit", v), bybit.WithLogger(logger)); err != nil {
		_ = container.Close()
		return nil, err
	}

	return container, nil
}

func newFreshnessStore(ctx context.Context, cfg settings.Freshness) (freshness.Store, error) {
	switch cfg.Backend {
	case "redis":
		return freshness.NewRedisStore(ctx, freshness.RedisConfig{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return freshness.NewMemoryStore(), nil
	}
}
