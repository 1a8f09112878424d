// Package main runs the MedFin gateway: the REST API over the family and
// savings stores, the cost estimator, the glossary, and the AI advisor
// backed by the analysis API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/medfin/platform/internal/app"
	"github.com/medfin/platform/internal/app/httpapi"
	"github.com/medfin/platform/internal/app/metrics"
	"github.com/medfin/platform/internal/app/storage"
	"github.com/medfin/platform/internal/app/storage/postgres"
	"github.com/medfin/platform/internal/config"
	"github.com/medfin/platform/internal/middleware"
	"github.com/medfin/platform/pkg/logger"
)

const shutdownGrace = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "medfin:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, "medfin", cfg.LogLevel)

	kv, closeKV, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	if closeKV != nil {
		defer closeKV()
	}

	application, err := app.New(
		app.Stores{Family: kv, Savings: kv},
		app.Options{
			BackendURL:       cfg.BackendURL,
			ReminderSchedule: cfg.ReminderSchedule,
			CostCatalog:      config.LoadCostCatalogOrDefault(cfg.CostCatalogPath, log),
			GlossaryEntries:  config.LoadGlossaryOrDefault(cfg.GlossaryPath, log),
		},
		log,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := application.Stop(shutdownCtx); err != nil {
			log.WithError(err).Error("stopping application")
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log.WithField("component", "ratelimit"))
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", middleware.RequestID(limiter.Handler(metrics.InstrumentHandler(httpapi.NewHandler(application)))))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).
			WithField("storage", cfg.Storage).
			Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage builds the configured KV backend. The returned close function
// may be nil for backends without connections to release.
func openStorage(cfg *config.Config, log *logger.Logger) (storage.KV, func(), error) {
	switch cfg.Storage {
	case "memory":
		return storage.NewMemory(), nil, nil

	case "file":
		kv, err := storage.NewFile(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file storage: %w", err)
		}
		return kv, nil, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		kv := storage.NewRedis(client)
		return kv, func() { _ = kv.Close() }, nil

	case "postgres":
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres storage: %w", err)
		}
		log.Info("postgres schema up to date")
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
