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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notetidy/internal/api"
	"github.com/starford/notetidy/internal/hook"
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/mcpserver"
	"github.com/starford/notetidy/internal/notice"
	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/sse"
	"github.com/starford/notetidy/internal/storage"
	"github.com/starford/notetidy/internal/summary"
	"github.com/starford/notetidy/internal/tidy"
	"github.com/starford/notetidy/internal/watch"
)

// App holds the components shared by every command.
type App struct {
	cfg      *Config
	version  string
	logger   *slog.Logger
	fs       *storage.FS
	settings *settings.Store
	journal  *journal.DB
	sched    *hook.Scheduler
	svc      *tidy.Service

	// Set only when serving.
	broker   *sse.Broker
	registry *hook.Registry
	watcher  *watch.Watcher
}

// Open wires the application for a one-shot command.
func Open(opts ...Option) (*App, error) {
	return open(opts, false)
}

func open(opts []Option, serve bool) (*App, error) {
	app := &application{version: "dev", logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	fs, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// User-editable settings, seeded from the config on first run.
	st, err := settings.Open(cfg.Settings.File, settings.Settings{
		TargetFolder: cfg.Settings.TargetFolder,
		APIKey:       cfg.Settings.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	// Initialize SQLite journal.
	db, err := journal.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	a := &App{
		cfg:      cfg,
		version:  app.version,
		logger:   logger,
		fs:       fs,
		settings: st,
		journal:  db,
		sched:    hook.NewScheduler(),
	}

	var (
		store    storage.Provider = fs
		notifier notice.Notifier  = notice.Log{Logger: logger}
		events   tidy.Events
	)
	if serve {
		a.broker = sse.NewBroker(16)
		a.registry = hook.NewRegistry()
		notifier = notice.Multi{notifier, a.broker}
		events = a.broker
		if cfg.Vault.Watch {
			a.watcher = watch.New(fs.Root(), a.registry, cfg.Vault.SelfWriteQuiet, logger)
			store = a.watcher.Wrap(fs)
		}
	}

	a.svc = tidy.NewService(tidy.Deps{
		Store:     store,
		Settings:  st,
		Summaries: summary.NewOpenAI(cfg.Summary.Client(st.Snapshot().APIKey), logger),
		Journal:   db,
		Notifier:  notifier,
		Events:    events,
		Scheduler: a.sched,
		Logger:    logger,
	}, cfg.TidyConfig())

	if a.registry != nil {
		a.registry.On(hook.Created, a.svc.HandleCreated)
	}

	snap := st.Snapshot()
	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("target_folder", snap.Folder()),
		slog.Bool("api_key_set", snap.APIKey != ""),
		slog.String("settings_file", cfg.Settings.File),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("summary_model", cfg.Summary.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return a, nil
}

// Service returns the tidy service.
func (a *App) Service() *tidy.Service {
	return a.svc
}

// Settings returns the settings store.
func (a *App) Settings() *settings.Store {
	return a.settings
}

// NotePath turns a command-line argument into a vault-relative note path.
// Absolute paths and paths that exist relative to the working directory are
// resolved against the vault root; anything else is taken as vault-relative.
func (a *App) NotePath(arg string) (string, error) {
	if filepath.IsAbs(arg) {
		return a.fs.Rel(arg)
	}
	if _, err := os.Stat(arg); err == nil {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", err
		}
		if rel, err := a.fs.Rel(abs); err == nil {
			return rel, nil
		}
	}
	return filepath.ToSlash(arg), nil
}

// Close stops pending work and releases resources.
func (a *App) Close() error {
	a.sched.Stop()
	if a.broker != nil {
		a.broker.Close()
	}
	return a.journal.Close()
}

// Run starts the HTTP API and the vault watcher and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	a, err := open(opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger

	apiRouter := api.NewRouter(a.svc, a.settings, cfg.Auth.AuthEnabled(), cfg.Auth.Token, a.broker)

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
		if err := a.settings.Snapshot().RequireFolder(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"target folder not set"}`))
			return
		}
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

	// Start vault watcher; new notes go through the hook registry.
	if a.watcher != nil {
		g.Go(func() error {
			if err := a.watcher.Run(gCtx); err != nil {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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

		// Drop scheduled strips and cancel summaries still in flight.
		a.sched.Stop()

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	a, err := Open(append([]Option{WithLogOutput(os.Stderr)}, opts...)...)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("MCP server starting on stdio")
	return mcpserver.New(a.svc, a.version).ServeStdio()
}
