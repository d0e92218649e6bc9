// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/thalvik/arkiv/internal/api"
	"github.com/thalvik/arkiv/internal/inbox"
	"github.com/thalvik/arkiv/internal/mcpserver"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/runner"
	"github.com/thalvik/arkiv/internal/sse"
	"github.com/thalvik/arkiv/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("reports_path", cfg.Reports.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the ingest root exists.
	if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	// Initialize the ingest root storage.
	store, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize the run-history database.
	db, err := reports.Open(cfg.Reports.Path)
	if err != nil {
		return fmt.Errorf("init reports: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Runner publishes lifecycle events to connected clients.
	run := runner.New(store, db, logger, func(kind string, r *reports.Run) {
		broker.PublishRunEvent(kind, r)
	})

	// Build API service and router.
	svc := api.NewService(run, db, store)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the inbox watcher; each new document becomes one run.
	watcher := inbox.New(store, db, cfg.Inbox.Path, cfg.Inbox.RescanInterval, logger,
		func(wCtx context.Context, relPaths []string, runKey string) {
			_, _ = run.Run(wCtx, relPaths, runKey)
		})
	g.Go(func() error {
		return watcher.Watch(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout. Logging goes to stderr so
// it never corrupts the stdio transport.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := reports.Open(cfg.Reports.Path)
	if err != nil {
		return fmt.Errorf("init reports: %w", err)
	}
	defer db.Close()

	run := runner.New(store, db, logger, nil)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(store, db, run).ServeStdio()
}

// RunOnce executes the pipeline for the given documents and exits. Paths
// are relative to the configured ingest root.
func RunOnce(ctx context.Context, paths []string, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one document path is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := reports.Open(cfg.Reports.Path)
	if err != nil {
		return fmt.Errorf("init reports: %w", err)
	}
	defer db.Close()

	run, err := runner.New(store, db, logger, nil).Run(ctx, paths, "")
	if err != nil {
		return err
	}
	if run.MismatchCount > 0 || run.InvalidCount > 0 {
		logger.Warn("run finished with fixity findings",
			slog.Int("mismatches", run.MismatchCount),
			slog.Int("invalid", run.InvalidCount))
	}
	return nil
}
