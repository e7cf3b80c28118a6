// Package app wires configuration to the pipeline and its drivers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"blogwatch/internal/acquire"
	"blogwatch/internal/classify"
	"blogwatch/internal/config"
	"blogwatch/internal/dates"
	"blogwatch/internal/httpserver"
	"blogwatch/internal/infrastructure/storage"
	"blogwatch/internal/logging"
	"blogwatch/internal/ports"
	"blogwatch/internal/usecase"
)

// Application owns the wired components and their lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	storage   ports.RecordStore
	service   *usecase.Service
	scheduler *usecase.Scheduler
	server    *httpserver.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	recordStore, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	recordStore = storage.NewCachedStore(recordStore, cfg.Database.CacheTTL.Std())

	var overrides map[string]time.Time
	if cfg.Dates.OverridesFile != "" {
		overrides, err = dates.LoadOverrides(cfg.Dates.OverridesFile)
		if err != nil {
			baseLogger.Warn("cannot load date overrides", "file", cfg.Dates.OverridesFile, "error", err)
		}
	}
	resolver := dates.NewResolver(overrides)

	classifier := classify.NewClassifier(cfg.Scraper.ContentIndicators)

	client := acquire.NewClient(
		&http.Client{Timeout: cfg.Scraper.Timeout.Std()},
		cfg.Scraper.UserAgent,
		cfg.Scraper.PerHostInterval.Std(),
	)
	engine := acquire.NewEngine(client, resolver, classifier,
		baseLogger.With("component", "acquire"),
		acquire.Config{
			MaxArticles:       cfg.Scraper.MaxArticlesPerRun,
			StrategyTimeout:   cfg.Scraper.Timeout.Std(),
			ArchivePageBudget: cfg.Scraper.ArchivePageBudget,
			ArchiveThreshold:  cfg.Scraper.ArchiveThreshold,
		})

	service := usecase.NewService(usecase.Deps{
		Store:       recordStore,
		Engine:      engine,
		Classifier:  classifier,
		Logger:      baseLogger.With("component", "service"),
		Cooldown:    cfg.Refresh.Cooldown.Std(),
		MaxArticles: cfg.Store.MaxArticles,
		Workers:     cfg.Refresh.Workers,
	})

	scheduler := usecase.NewScheduler(service, cfg.Refresh.Interval.Std(),
		baseLogger.With("component", "scheduler"))

	server := httpserver.New(service, baseLogger.With("component", "http"),
		cfg.Server.Port, cfg.Server.AllowedOrigins)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		storage:   recordStore,
		service:   service,
		scheduler: scheduler,
		server:    server,
	}, nil
}

// Service exposes the pipeline for one-shot CLI commands.
func (a *Application) Service() *usecase.Service { return a.service }

// Run starts the refresh scheduler and the HTTP server, and blocks until
// the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown", "error", err)
	}
	return nil
}

// Close releases the record store.
func (a *Application) Close() error {
	return a.storage.Close()
}

func openStore(cfg config.DatabaseConfig) (ports.RecordStore, error) {
	switch cfg.Driver {
	case "file":
		return storage.NewFileStore(cfg.DSN)
	case "sqlite", "postgres":
		return storage.NewSQLStore(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
