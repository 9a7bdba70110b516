package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lendhub/internal/api"
	"lendhub/internal/cache"
	"lendhub/internal/config"
	"lendhub/internal/domain"
	"lendhub/internal/events"
	"lendhub/internal/executor"
	"lendhub/internal/gateway"
	"lendhub/internal/logging"
	"lendhub/internal/metrics"
	"lendhub/internal/service"
	"lendhub/internal/syncer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := logging.Component(baseLogger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.New(cfg.Gateway.SQLitePath, logging.Component(baseLogger, "gateway"))
	if err != nil {
		logger.Error().Err(err).Msg("gateway init failed")
		return err
	}
	defer gw.Close()

	metrics.Register()

	store := cache.New(cfg.TTLs(cache.DefaultTTLs()))
	orchestrator := syncer.New(store, gw, cfg.SyncTimeout(), syncer.RetryPolicy{
		MaxRetries:    cfg.Sync.MaxRetries,
		InitialDelay:  time.Duration(cfg.Sync.InitialBackoffSeconds) * time.Second,
		MaxDelay:      time.Duration(cfg.Sync.MaxBackoffSeconds) * time.Second,
		BackoffFactor: cfg.Sync.BackoffFactor,
	}, logging.Component(baseLogger, "sync"))

	result, err := orchestrator.LoadAll(ctx, true)
	if err != nil {
		// A completely failed initial load still leaves a usable empty
		// cache; the change feed and manual refresh can recover later.
		logger.Warn().Err(err).Msg("initial load failed")
	} else {
		logger.Info().
			Int("refreshed", len(result.Refreshed)).
			Int("failed", len(result.Failed)).
			Dur("elapsed", result.Elapsed).
			Msg("initial load complete")
	}

	feed := initChangeFeed(ctx, cfg, baseLogger)
	if feed != nil {
		defer feed.Close()
		go func() {
			if err := feed.Listen(ctx, orchestrator); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("change feed listener stopped")
			}
		}()
	}

	bus := events.NewEventBus()
	exec := executor.New(store, logging.Component(baseLogger, "executor"))

	var publisher domain.ChangePublisher
	if feed != nil {
		publisher = feed
	}
	loanService := service.NewLoanService(store, gw, exec, bus, publisher, logging.Component(baseLogger, "loans"))
	reservationService := service.NewReservationService(store, gw, exec, bus, publisher, logging.Component(baseLogger, "reservations"))
	resourceService := service.NewResourceService(store, gw, exec, bus, publisher, logging.Component(baseLogger, "resources"))

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, logger)
	}

	if cfg.API.Enabled {
		server := api.NewServer(cfg.API, store, orchestrator, loanService, reservationService, resourceService,
			logging.Component(baseLogger, "api"))
		go func() {
			if err := server.Start(); err != nil {
				logger.Error().Err(err).Msg("api server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().Msg("lendhub running")
	<-ctx.Done()
	logger.Info().Msg("shutdown complete")
	return nil
}

func initChangeFeed(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) *events.ChangeFeed {
	if !cfg.Redis.Enabled {
		return nil
	}

	logger := logging.Component(baseLogger, "feed")
	client := events.NewRedisClient(cfg.Redis)
	if err := events.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, change feed disabled")
		_ = client.Close()
		return nil
	}

	debounce := time.Duration(cfg.Sync.DebounceSeconds) * time.Second
	return events.NewChangeFeed(client, cfg.Redis.Channel, debounce, logger)
}

func serveMetrics(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
