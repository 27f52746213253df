// Package sqlitestorage implements the storage backend on an in-memory SQLite
// database with periodic disk dumps via VACUUM INTO. Everything else is the
// embedded GORM backend.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dronepath/autopilot/internal/cache"
	"github.com/dronepath/autopilot/internal/database"
	gormstorage "github.com/dronepath/autopilot/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // target of the periodic VACUUM INTO
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new SQLite storage backend.
func New(cfg Config, planCache *cache.PlanCache, log *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite("", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:        db,
			PlanCache: planCache,
			Logger:    log,
		}),
		cfg:      cfg,
		log:      log.With("component", "sqlite"),
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, flushes the GORM backend and writes a final dump.
func (b *Backend) Close() error {
	close(b.stopChan)
	b.wg.Wait()
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// EndFlight closes the flight and snapshots the database so a finished
// flight is on disk without waiting for the next tick.
func (b *Backend) EndFlight() error {
	if err := b.Backend.EndFlight(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// Dump writes a point-in-time copy of the database to DumpPath.
func (b *Backend) Dump() error {
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
