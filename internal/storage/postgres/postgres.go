// Package postgres implements the storage backend on a PostgreSQL server,
// connecting on Init and delegating to the shared GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/dronepath/autopilot/internal/cache"
	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/database"
	gormstorage "github.com/dronepath/autopilot/internal/storage/gorm"
)

// Backend connects lazily so a down server surfaces from Init, not New.
type Backend struct {
	*gormstorage.Backend
	cfg       config.PostgresConfig
	planCache *cache.PlanCache
	log       *slog.Logger
	dbLog     zerolog.Logger
}

// New creates a new Postgres storage backend.
func New(cfg config.PostgresConfig, planCache *cache.PlanCache, log *slog.Logger, dbLog zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, planCache: planCache, log: log, dbLog: dbLog}
}

// Init connects, migrates and starts the writer.
func (b *Backend) Init() error {
	db, err := database.OpenPostgres(b.cfg, b.dbLog)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:        db,
		PlanCache: b.planCache,
		Logger:    b.log,
	})
	return b.Backend.Init()
}

// Close flushes pending writes and closes the pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
