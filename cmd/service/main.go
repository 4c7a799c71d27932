// cmd/service/main.go
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

	"github-repo-sync/internal/api"
	"github-repo-sync/internal/config"
	"github-repo-sync/internal/credentials"
	"github-repo-sync/internal/store"
	"github-repo-sync/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "db_driver", cfg.DBDriver, "accounts", len(cfg.AccountsToSync))

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Open the store; migrations run as part of Open
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBURL, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// 5. Initialize application components
	creds := credentials.NewStatic(cfg.TokensByAccount, cfg.GithubToken)
	reconciler := syncer.NewReconciler(st, syncer.GitHubFactory(cfg.GithubAPIURL, cfg.HTTPTimeout, logger), logger)
	service := syncer.NewService(reconciler, creds, cfg.SyncTimeout, logger)

	// 6. Start the scheduler in a separate goroutine
	if cfg.SyncInterval > 0 {
		scheduler := syncer.NewScheduler(service, logger, cfg.AccountsToSync, cfg.SyncInterval, cfg.SyncConcurrency)
		go scheduler.Start(ctx)
	} else {
		logger.Info("Periodic sync disabled")
	}

	// 7. Serve the API until shutdown
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(service, st, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
