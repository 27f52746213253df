// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/dronepath/autopilot/internal/cache"
	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/internal/storage/memory"
	"github.com/dronepath/autopilot/internal/storage/postgres"
	sqlitestorage "github.com/dronepath/autopilot/internal/storage/sqlite"
	"github.com/dronepath/autopilot/internal/storage/websocket"
)

// Options carries what the backends share beyond their own config section.
type Options struct {
	Logger   *slog.Logger
	DBLogger zerolog.Logger
	// Home enables GeoJSON tracks in memory exports.
	Home          *geo.LatLon
	MetersPerUnit float64
}

// NewBackend creates a storage backend based on configuration.
// The backend is not initialised.
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	planCache := cache.NewPlanCache(cfg.PlanCache)

	switch cfg.Type {
	case "memory", "":
		memOpts := []memory.Option{memory.WithLogger(opts.Logger)}
		if opts.Home != nil {
			memOpts = append(memOpts, memory.WithGeo(*opts.Home, opts.MetersPerUnit))
		}
		return memory.New(cfg.Memory, memOpts...), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, planCache, opts.Logger, opts.DBLogger)
	case "postgres":
		return postgres.New(cfg.Postgres, planCache, opts.Logger, opts.DBLogger), nil
	case "websocket":
		return websocket.New(cfg.WebSocket, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
