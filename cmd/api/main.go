// Package main is the entry point for the Lunisolar API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/api"
	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting lunisolar API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("store", cfg.StoreEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("lunisolar API stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	finder := astro.NewFinder(ephemeris.NewMeeus(), logger.Component("finder"))
	finder.Workers = cfg.FinderWorkers

	var (
		db    *database.DB
		store lunisolar.EventStore
	)
	if cfg.StoreEnabled() {
		var err error
		db, err = database.Open(database.DefaultConfig(cfg.DatabasePath), logger.Component("store"))
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("event store ready", slog.String("path", cfg.DatabasePath), slog.Int("migrations_applied", applied))
		store = db
	}

	svc := lunisolar.NewService(lunisolar.NewProvider(finder, store, logger.Component("events")), log)
	svc.MaxYearSpan = cfg.MaxYearSpan

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(api.NewHandlers(svc, db, cfg, log), cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverError := make(chan error, 1)
	go func() {
		log.Info("http listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-serverError:
		return fmt.Errorf("server startup: %w", err)
	}
}
