// Package gormstorage implements storage.Backend and storage.PlanStore on GORM.
// Flights are inserted synchronously; waypoints go through a queue drained by a
// background writer. The sqlite and postgres backends wrap it.
package gormstorage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dronepath/autopilot/internal/cache"
	"github.com/dronepath/autopilot/internal/database"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/internal/model"
	"github.com/dronepath/autopilot/internal/model/convert"
	"github.com/dronepath/autopilot/internal/queue"
	"github.com/dronepath/autopilot/pkg/core"
)

const (
	defaultFlushInterval = 2 * time.Second
	writeBatch           = 500
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	PlanCache     *cache.PlanCache
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	waypoints *queue.Queue[model.Waypoint]
	flightID  atomic.Uint64

	// writeMu serialises queue drains between the writer and EndFlight
	writeMu sync.Mutex

	trackMu sync.Mutex
	track   []core.Vec3

	lastWrite atomic.Int64

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.PlanCache == nil {
		deps.PlanCache = cache.NewPlanCache(cache.DefaultSize)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB exposes the underlying handle to wrappers.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the waypoint writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.waypoints = queue.New[model.Waypoint]()
	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.writeLoop()

	b.deps.Logger.Info("Database setup complete", "dialect", b.deps.DB.Name())
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()
	b.stopChan = nil
	return b.flush()
}

// StartFlight inserts the flight row; later waypoints are stamped with its ID.
func (b *Backend) StartFlight(f *core.Flight) error {
	row := convert.CoreToFlight(*f)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert flight: %w", err)
	}
	b.flightID.Store(uint64(row.ID))

	b.trackMu.Lock()
	b.track = b.track[:0]
	b.trackMu.Unlock()
	return nil
}

// RecordWaypoint converts and queues a waypoint.
func (b *Backend) RecordWaypoint(w *core.Waypoint) error {
	row := convert.CoreToWaypoint(*w)
	row.FlightID = uint(b.flightID.Load())
	b.waypoints.Push(row)

	b.trackMu.Lock()
	b.track = append(b.track, w.Position)
	b.trackMu.Unlock()
	return nil
}

// EndFlight flushes pending waypoints and closes the flight row.
func (b *Backend) EndFlight() error {
	id := uint(b.flightID.Load())
	if id == 0 {
		return nil
	}
	if err := b.flush(); err != nil {
		return err
	}

	b.trackMu.Lock()
	wkt := geo.WKT(b.track)
	b.trackMu.Unlock()

	err := b.deps.DB.Model(&model.Flight{}).Where("id = ?", id).Updates(map[string]any{
		"end_time": sql.NullTime{Time: time.Now(), Valid: true},
		"path_wkt": wkt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to close flight %d: %w", id, err)
	}
	return nil
}

// SavePlan upserts a plan by name and refreshes the cache.
func (b *Backend) SavePlan(p *core.Plan) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	row, err := convert.CoreToPlan(*p)
	if err != nil {
		return err
	}
	row.ID = 0

	err = b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "distance_unit", "speed", "commands", "instructions"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save plan %q: %w", p.Name, err)
	}

	var saved model.Plan
	if err := b.deps.DB.Select("id").Where("name = ?", p.Name).First(&saved).Error; err != nil {
		return fmt.Errorf("failed to read back plan %q: %w", p.Name, err)
	}
	p.ID = saved.ID
	b.deps.PlanCache.Add(*p)
	return nil
}

// LoadPlan returns a plan by name, from cache when possible.
func (b *Backend) LoadPlan(name string) (core.Plan, error) {
	if p, ok := b.deps.PlanCache.Get(name); ok {
		return p, nil
	}

	var row model.Plan
	err := b.deps.DB.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Plan{}, fmt.Errorf("%w: %s", core.ErrPlanNotFound, name)
	}
	if err != nil {
		return core.Plan{}, fmt.Errorf("failed to load plan %q: %w", name, err)
	}

	p, err := convert.PlanToCore(row)
	if err != nil {
		return core.Plan{}, err
	}
	b.deps.PlanCache.Add(p)
	return p, nil
}

// ListPlans returns the saved plan names in order.
func (b *Backend) ListPlans() ([]string, error) {
	var names []string
	if err := b.deps.DB.Model(&model.Plan{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return names, nil
}

// Flights returns the recorded flights, newest first.
func (b *Backend) Flights() ([]core.Flight, error) {
	var rows []model.Flight
	if err := b.deps.DB.Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	out := make([]core.Flight, len(rows))
	for i, r := range rows {
		out[i] = convert.FlightToCore(r)
	}
	return out, nil
}

// FlightWaypoints returns the stored waypoints of one flight in order.
func (b *Backend) FlightWaypoints(flightID uint) ([]core.Waypoint, error) {
	var rows []model.Waypoint
	if err := b.deps.DB.Where("flight_id = ?", flightID).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load waypoints: %w", err)
	}
	out := make([]core.Waypoint, len(rows))
	for i, r := range rows {
		out[i] = convert.WaypointToCore(r)
	}
	return out, nil
}

// FlightPath returns the stored WKT path of a finished flight.
func (b *Backend) FlightPath(flightID uint) (string, error) {
	var row model.Flight
	if err := b.deps.DB.Select("path_wkt").First(&row, flightID).Error; err != nil {
		return "", fmt.Errorf("failed to load flight %d: %w", flightID, err)
	}
	return row.PathWKT, nil
}

// Pending reports how many waypoints wait for the writer.
func (b *Backend) Pending() int {
	if b.waypoints == nil {
		return 0
	}
	return b.waypoints.Len()
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.flush(); err != nil {
				b.deps.Logger.Error("Error writing waypoints", "error", err)
			}
		}
	}
}

// GetLastDBWriteDuration returns how long the last non-empty flush took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// flush drains the queue in batches, requeueing a batch that fails.
func (b *Backend) flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.waypoints.Len() == 0 {
		return nil
	}
	start := time.Now()
	defer func() { b.lastWrite.Store(int64(time.Since(start))) }()

	for b.waypoints.Len() > 0 {
		items := b.waypoints.Drain(writeBatch)
		err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&items).Error
		})
		if err != nil {
			b.waypoints.Requeue(items)
			return fmt.Errorf("error creating waypoints: %w", err)
		}
	}
	return nil
}
