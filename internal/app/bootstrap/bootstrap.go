// Package bootstrap assembles process-level dependencies for the galleria
// binaries. cmd/api and cmd/worker stay thin and delegate wiring here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	votingregistry "galleria/contexts/gallery/voting-registry"
	registrypostgres "galleria/contexts/gallery/voting-registry/adapters/postgres"
	"galleria/contexts/gallery/voting-registry/application/workers"
	"galleria/internal/platform/config"
	"galleria/internal/platform/db"
	"galleria/internal/platform/httpserver"
	"galleria/internal/platform/messaging"
	"galleria/internal/platform/metrics"
)

// APIApp is the fully wired HTTP process.
type APIApp struct {
	Server *httpserver.Server
	DB     *db.Postgres
	Logger *slog.Logger
}

// WorkerApp is the fully wired outbox relay process.
type WorkerApp struct {
	Relay        workers.OutboxRelay
	PollInterval time.Duration
	DB           *db.Postgres
	Logger       *slog.Logger
}

func newLogger(serviceName string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
}

// BuildAPI loads configuration, connects storage and returns a runnable API
// process. When POSTGRES_DSN is empty the registry falls back to the
// in-memory store, which keeps local development broker-free.
func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceName)

	var (
		module votingregistry.Module
		pg     *db.Postgres
	)
	if cfg.PostgresDSN == "" {
		logger.Warn("postgres dsn not set, using in-memory registry store",
			"event", "api_memory_store_fallback",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module = votingregistry.NewInMemoryModule(logger)
	} else {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := registrypostgres.AutoMigrate(pg.DB); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate registry schema: %w", err)
		}
		repo := registrypostgres.NewRepository(pg.DB, logger)
		module = votingregistry.NewModule(votingregistry.Dependencies{
			Subjects: repo,
			Ledger:   repo,
			Clock:    registrypostgres.SystemClock{},
			IDGen:    registrypostgres.UUIDGenerator{},
			Logger:   logger,
		})
	}

	server := httpserver.New(module, metrics.New(), logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{Server: server, DB: pg, Logger: logger}, nil
}

// Run blocks serving HTTP until the listener fails.
func (a *APIApp) Run() error {
	return a.Server.Start()
}

func (a *APIApp) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// BuildWorker wires the outbox relay against postgres and the event bus.
// Unlike the API, the worker has no in-memory fallback: relaying is only
// meaningful against durable outbox rows.
func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceName + "-worker")

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required for the outbox worker")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := registrypostgres.AutoMigrate(pg.DB); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("migrate registry schema: %w", err)
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("connect event bus: %w", err)
	}

	relay := workers.OutboxRelay{
		Outbox:    registrypostgres.NewRepository(pg.DB, logger),
		Publisher: bus,
		Clock:     registrypostgres.SystemClock{},
		BatchSize: cfg.OutboxBatchSize,
		Logger:    logger,
	}
	return &WorkerApp{
		Relay:        relay,
		PollInterval: cfg.OutboxPollInterval,
		DB:           pg,
		Logger:       logger,
	}, nil
}

// Run polls the outbox until ctx is cancelled. Relay failures are logged and
// retried on the next tick rather than crashing the process.
func (w *WorkerApp) Run(ctx context.Context) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Logger.Info("outbox worker started",
		"event", "outbox_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("outbox worker stopping",
				"event", "outbox_worker_stopping",
				"module", "internal/app/bootstrap",
				"layer", "platform",
			)
			return ctx.Err()
		case <-ticker.C:
			if err := w.Relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.Logger.Error("outbox relay pass failed",
					"event", "outbox_relay_pass_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.DB == nil {
		return nil
	}
	return w.DB.Close()
}

func normalizeAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
