// Package internal wires configuration, logging, the catalog and the
// generator into the build, serve and mcp commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wikarden/internal/api"
	"github.com/starford/wikarden/internal/index"
	"github.com/starford/wikarden/internal/mcpserver"
	"github.com/starford/wikarden/internal/pageservice"
	"github.com/starford/wikarden/internal/site"
	"github.com/starford/wikarden/internal/sse"
	"github.com/starford/wikarden/internal/storage"
)

// runtime holds what every command needs once options are applied.
type runtime struct {
	cfg     *Config
	version string
	logger  *slog.Logger
	db      *index.DB
	gen     *site.Generator
	closers []func() error
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// start applies opts, sets up logging and opens the catalog. When
// needCatalog is set and no sqlite path is configured, a temporary catalog
// is used for the life of the process.
func start(opts []Option, logOutput io.Writer, needCatalog, liveReload bool) (*runtime, error) {
	app := &application{version: "dev", logOutput: logOutput}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger, closeLog := newLogger(cfg.App, app.logOutput)
	slog.SetDefault(logger)

	rt := &runtime{
		cfg:     cfg,
		version: app.version,
		logger:  logger,
		closers: []func() error{closeLog},
	}

	logger.Info("Configuration loaded",
		slog.String("source", cfg.Site.Source),
		slog.String("output", cfg.Site.Output),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	genOpts := []site.Option{
		site.WithExtensions(cfg.Site.MarkupExt, cfg.Site.OutputExt),
		site.WithTemplate(cfg.Site.Template),
		site.WithLiveReload(liveReload),
		site.WithLogger(logger),
	}

	if cfg.SQLite.Enabled() || needCatalog {
		db, cleanup, err := openCatalog(cfg.SQLite)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.db = db
		rt.closers = append(rt.closers, cleanup, db.Close)
		genOpts = append(genOpts, site.WithRecorder(db))
	}

	gen, err := site.New(cfg.Site.Source, cfg.Site.Output, genOpts...)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}
	rt.gen = gen
	return rt, nil
}

// openCatalog opens the configured catalog, or a throwaway one when the path
// is empty. The cleanup function removes the throwaway file.
func openCatalog(cfg SQLiteConfig) (*index.DB, func() error, error) {
	path := cfg.Path
	cleanup := func() error { return nil }
	if !cfg.Enabled() {
		dir, err := os.MkdirTemp("", "wikarden-catalog-*")
		if err != nil {
			return nil, nil, fmt.Errorf("create catalog dir: %w", err)
		}
		path = filepath.Join(dir, "catalog.db")
		cleanup = func() error { return os.RemoveAll(dir) }
	}

	db, err := index.Open(path)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("init catalog: %w", err)
	}
	return db, cleanup, nil
}

// Build generates the site once.
func Build(ctx context.Context, opts ...Option) (*site.Report, error) {
	rt, err := start(opts, os.Stdout, false, false)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	return rt.gen.Build(ctx)
}

// Serve builds the site, serves it with the preview API and rebuilds on every
// change to the source tree until ctx is done or a signal arrives.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := start(opts, os.Stdout, true, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker(0)
	defer broker.Close()

	var ready atomic.Bool
	rebuild := func(ctx context.Context) {
		report, err := rt.gen.Build(ctx)
		if err != nil {
			broker.PublishFailed(err)
			return
		}
		ready.Store(true)
		broker.PublishRebuilt(report.BuildID, report.Pages)
	}

	// A broken source tree should not keep the server from starting; the
	// watcher retries on the next change.
	rebuild(ctx)

	store, err := storage.NewFS(cfg.Site.Source)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	outputRoot, err := filepath.Abs(cfg.Site.Output)
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}

	svc := pageservice.NewService(store, rt.db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "building")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.BearerToken(), broker))
	r.Handle("/*", api.NewSiteHandler(outputRoot, cfg.Site.OutputExt))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w := site.NewWatcher(cfg.Site.Source, []string{outputRoot}, cfg.Watch.Debounce, logger)
		return w.Run(gCtx, rebuild)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Streaming SSE clients would hold Shutdown open until the timeout.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP builds the site and exposes it over MCP on stdin/stdout. Logs go
// to stderr unless a log file is configured.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := start(opts, os.Stderr, true, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.gen.Build(ctx); err != nil {
		rt.logger.Warn("mcp: initial build failed", slog.String("error", err.Error()))
	}

	store, err := storage.NewFS(rt.cfg.Site.Source)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	srv := mcpserver.New(pageservice.NewService(store, rt.db), rt.gen, rt.version)
	rt.logger.Info("mcp: serving on stdio")
	return srv.ServeStdio()
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
