// Package internal provides the application initialization and runtime
// logic shared by the pile commands.
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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/yoav-lavi/pile/internal/api"
	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/mcpserver"
	"github.com/yoav-lavi/pile/internal/notes"
	"github.com/yoav-lavi/pile/internal/service"
	"github.com/yoav-lavi/pile/internal/sse"
	"github.com/yoav-lavi/pile/internal/storage"
	"github.com/yoav-lavi/pile/internal/watch"
)

// NewLogger returns the structured JSON logger every pile mode uses.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = NewLogger(os.Stderr, app.config.App.LogLevel)
	}
	return app, nil
}

// Runtime is an opened pile root: the store, the optional catalog and the
// service on top of them.
type Runtime struct {
	Service *service.Service
	Logger  *slog.Logger

	db *catalog.DB
}

// Open opens the configured pile root for a single command.
func Open(opts ...Option) (*Runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return open(app)
}

func open(app *application, extra ...service.Option) (*Runtime, error) {
	cfg := app.config
	logger := app.logger

	store, err := storage.Open(cfg.Store.Root)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Logger: logger}
	svcOpts := []service.Option{
		service.WithClock(notes.LocalClock(cfg.Store.Timezone)),
		service.WithLogger(logger),
	}
	if cfg.Catalog.Enabled {
		path := cfg.Catalog.Resolve(store.Root())
		db, err := catalog.Open(path)
		if err != nil {
			// Derived data only; carry on with the TOML files.
			logger.Warn("catalog unavailable",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			rt.db = db
			svcOpts = append(svcOpts, service.WithCatalog(db))
		}
	}
	rt.Service = service.New(store, append(svcOpts, extra...)...)

	logger.Debug("pile opened",
		slog.String("root", store.Root()),
		slog.Bool("catalog", rt.db != nil))
	return rt, nil
}

// Close releases the catalog.
func (rt *Runtime) Close() error {
	if rt.db == nil {
		return nil
	}
	return rt.db.Close()
}

// Serve runs the HTTP API, the SSE stream and the file watcher until ctx is
// cancelled or the process receives SIGINT/SIGTERM.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	broker := sse.NewBroker(2*time.Second, sse.WithKeepAlive(30*time.Second))
	defer broker.Close()

	rt, err := open(app, service.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer rt.Close()
	svc := rt.Service

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", svc.Root()),
		slog.Bool("catalog", rt.db != nil),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if _, err := svc.SyncCatalog(ctx); err != nil {
		logger.Warn("initial catalog sync failed", slog.String("error", err.Error()))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w := watch.New(svc.Root(), svc, logger, func(kind string) {
			broker.Publish(sse.Event{
				Type: sse.TypeNotesChanged,
				Data: map[string]any{"source": "watcher", "kind": kind},
			})
		})
		if err := w.Run(gCtx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		// Stops the watcher too.
		cancel()

		logger.Info("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
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

// Watch keeps note tags in step with hand edits of rules.toml until
// interrupted.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		waitForShutdown(ctx, app.logger)
		cancel()
	}()

	app.logger.Info("Watching", slog.String("root", rt.Service.Root()))
	return watch.New(rt.Service.Root(), rt.Service, app.logger, nil).Run(ctx)
}

// MCP serves the pile tools over stdio until stdin closes.
func MCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.Close()

	app.logger.Info("Starting MCP server", slog.String("root", rt.Service.Root()))
	return mcpserver.New(rt.Service, app.version).ServeStdio()
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
