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

	"github.com/arroyoseco/abate/internal/api"
	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/gemini"
	"github.com/arroyoseco/abate/internal/inspection"
	"github.com/arroyoseco/abate/internal/mcpserver"
	"github.com/arroyoseco/abate/internal/media"
	"github.com/arroyoseco/abate/internal/sse"
	"github.com/arroyoseco/abate/internal/store"
)

// disabledTagger stands in when no Gemini API key is configured. Every
// analysis fails, which the engine degrades to an empty tag list.
type disabledTagger struct{}

func (disabledTagger) DetectTags(context.Context, []byte, string, string) ([]string, error) {
	return nil, errors.New("auto-tagging disabled: no API key configured")
}

type disabledNarrator struct{}

func (disabledNarrator) GenerateNarrative(context.Context, string) (string, error) {
	return "", errors.New("report generation disabled: no API key configured")
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, svc, cat, cleanup, err := buildApp(ctx, opts...)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := app.config

	broker := sse.NewBroker(15 * time.Second)
	defer broker.Close()
	svc.SetPublisher(broker)

	apiRouter := api.NewRouter(svc, cat, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Catalog override watcher.
	if cfg.Catalog.OverridesPath != "" {
		g.Go(func() error {
			return cat.Watch(gCtx, cfg.Catalog.OverridesPath, logger)
		})
	}

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
		if err := svc.Close(); err != nil {
			logger.Error("Engine shutdown error", slog.String("error", err.Error()))
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

// RunMCP starts the MCP server on stdio.
func RunMCP(ctx context.Context, opts ...Option) error {
	_, logger, svc, _, cleanup, err := buildApp(ctx, opts...)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = svc.Close() }()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// buildApp assembles the engine shared by the HTTP and MCP entry points.
func buildApp(ctx context.Context, opts ...Option) (*application, *slog.Logger, *inspection.Service, *catalog.Catalog, func(), error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("media_path", cfg.Media.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	med, err := media.NewFS(cfg.Media.Path)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("init media storage: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("init store: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	cat := catalog.New()
	if cfg.Catalog.OverridesPath != "" {
		if err := cat.LoadOverrides(cfg.Catalog.OverridesPath); err != nil {
			logger.Warn("catalog overrides not loaded", slog.String("error", err.Error()))
		}
	}

	tagger := app.tagger
	narrator := app.narrator
	if tagger == nil || narrator == nil {
		apiKey := cfg.Gemini.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			logger.Warn("no Gemini API key: auto-tagging and report generation disabled")
			if tagger == nil {
				tagger = disabledTagger{}
			}
			if narrator == nil {
				narrator = disabledNarrator{}
			}
		} else {
			client, err := gemini.New(ctx, apiKey, cfg.Gemini.Model, logger)
			if err != nil {
				cleanup()
				return nil, nil, nil, nil, nil, fmt.Errorf("init gemini client: %w", err)
			}
			if tagger == nil {
				tagger = client
			}
			if narrator == nil {
				narrator = client
			}
		}
	}

	svc := inspection.NewService(db, med, cat, tagger, narrator, nil, logger)
	if err := svc.Load(); err != nil {
		cleanup()
		return nil, nil, nil, nil, nil, fmt.Errorf("load sessions: %w", err)
	}
	svc.SweepOrphans()

	return app, logger, svc, cat, cleanup, nil
}
