// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/images"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/paths"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/storage"
)

const catalogFile = "daybook.db"

// runtime is everything an open journal needs kept alive.
type runtime struct {
	svc    *journal.Service
	db     *index.DB
	notes  storage.Provider
	broker *sse.Broker
	paths  paths.Paths
}

func (rt *runtime) close() {
	rt.broker.Close()
	_ = rt.db.Close()
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts...)

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. MCP owns stdout, so it logs to stderr.
	logOut := io.Writer(os.Stdout)
	if app.mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	rt, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	switch app.mode {
	case ModeServe:
		return serve(ctx, cfg, rt, logger)
	case ModeMCP:
		logger.Info("Serving MCP on stdio")
		return mcpserver.New(rt.svc).ServeStdio()
	case ModeRebuild:
		days, err := rt.svc.ListDays(ctx, "", "")
		if err != nil {
			return fmt.Errorf("list days: %w", err)
		}
		_, _ = fmt.Fprintf(app.out, "rebuilt %d days from %s\n", len(days), rt.paths.Notes)
		return nil
	case ModePurge:
		return purge(ctx, app, rt)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

// open resolves the journal folder and builds the service stack. The
// presence index and catalog are rebuilt from disk before it returns.
func open(ctx context.Context, cfg *Config, logger *slog.Logger) (*runtime, error) {
	p, err := paths.Resolve(cfg.Journal.Path, cfg.Journal.Layout())
	if err != nil {
		return nil, fmt.Errorf("resolve journal: %w", err)
	}
	if err := p.Ensure(); err != nil {
		return nil, fmt.Errorf("create journal dirs: %w", err)
	}

	dbPath := cfg.SQLite.Path
	if dbPath == "" {
		dbPath = filepath.Join(p.Base, catalogFile)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("journal_path", p.Base),
		slog.String("notes_path", p.Notes),
		slog.String("images_path", p.Images),
		slog.String("settings_path", p.Settings),
		slog.String("sqlite_path", dbPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	noteFS, err := storage.NewFS(p.Notes)
	if err != nil {
		return nil, fmt.Errorf("init note storage: %w", err)
	}
	imageFS, err := storage.NewFS(p.Images)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	db, err := index.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	broker := sse.NewBroker(2 * time.Second)

	svc := journal.New(
		notes.NewRepository(noteFS, logger),
		images.NewStore(imageFS, logger),
		journal.WithCatalog(db),
		journal.WithPublisher(broker),
		journal.WithEditorConfig(cfg.Editor.Editor()),
		journal.WithLogger(logger),
	)
	if err := svc.Open(ctx); err != nil {
		broker.Close()
		_ = db.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &runtime{svc: svc, db: db, notes: noteFS, broker: broker, paths: p}, nil
}

func purge(ctx context.Context, app *application, rt *runtime) error {
	if !app.confirmed {
		_, _ = fmt.Fprintf(app.out, "Delete every note in %s? Images are kept. [y/N]: ", rt.paths.Notes)
		answer, _ := bufio.NewReader(app.in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			_, _ = fmt.Fprintln(app.out, "aborted")
			return nil
		}
	}
	removed, err := rt.svc.DeleteAll(ctx, true)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	_, _ = fmt.Fprintf(app.out, "deleted %d notes\n", len(removed))
	return nil
}

func newHTTPHandler(cfg *Config, rt *runtime) http.Handler {
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
		if _, err := os.Stat(rt.paths.Notes); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"notes folder unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Images are embedded by <img> tags, which cannot send a bearer token.
	r.Get("/images/{name}", api.NewImageHandler(rt.svc).ServeFile)

	r.Mount("/api", api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, rt.broker))
	return r
}

func serve(ctx context.Context, cfg *Config, rt *runtime, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(sigCtx)

	// Fold edits made outside the service into presence and push them to SSE.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.db, rt.notes, logger, rt.svc.ExternalChange); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down on SIGINT/SIGTERM, parent cancellation or a failed goroutine.
	// The watcher stops on the same context, so Wait always returns.
	g.Go(func() error {
		<-gCtx.Done()
		if sigCtx.Err() != nil && ctx.Err() == nil {
			logger.Info("Received shutdown signal")
		} else {
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
