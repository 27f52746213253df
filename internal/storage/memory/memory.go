// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
)

// FlightRecord groups a flight with its waypoints.
type FlightRecord struct {
	Flight    core.Flight
	Waypoints []core.Waypoint
	EndTime   time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// WithGeo adds a GeoJSON track around home to every flight export.
func WithGeo(home geo.LatLon, metersPerUnit float64) Option {
	return func(b *Backend) {
		b.home = &home
		b.metersPerUnit = metersPerUnit
	}
}

// Backend keeps flights in memory, exports each finished flight to a file
// and stores plans as files under the output directory.
type Backend struct {
	cfg    config.MemoryConfig
	format Format
	log    *slog.Logger

	home          *geo.LatLon
	metersPerUnit float64

	current *FlightRecord
	flights []FlightRecord
	plans   map[string]core.Plan

	lastExportPath string
	lastExportMeta core.UploadMetadata

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, opts ...Option) *Backend {
	b := &Backend{
		cfg:    cfg,
		format: FormatJSON,
		log:    slog.Default(),
		plans:  make(map[string]core.Plan),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Init validates the file format and prepares the output directories.
func (b *Backend) Init() error {
	f, err := ParseFormat(b.cfg.Format, b.cfg.CompressOutput)
	if err != nil {
		return err
	}
	b.format = f

	if b.cfg.OutputDir == "" {
		return nil
	}
	for _, dir := range []string{b.plansDir(), b.flightsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartFlight begins recording a new flight.
func (b *Backend) StartFlight(f *core.Flight) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = &FlightRecord{
		Flight:    *f,
		Waypoints: make([]core.Waypoint, 0, f.Steps+2),
	}
	return nil
}

// RecordWaypoint appends to the current flight; without one it is dropped.
func (b *Backend) RecordWaypoint(w *core.Waypoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil
	}
	b.current.Waypoints = append(b.current.Waypoints, *w)
	return nil
}

// EndFlight files the current flight and exports it when an output
// directory is configured.
func (b *Backend) EndFlight() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil
	}
	rec := *b.current
	rec.EndTime = time.Now()
	b.flights = append(b.flights, rec)
	b.current = nil

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportFlight(rec)
}

// Flights returns the finished flights in order.
func (b *Backend) Flights() []FlightRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]FlightRecord, len(b.flights))
	copy(out, b.flights)
	return out
}

// SavePlan keeps p and writes it to the plans directory.
func (b *Backend) SavePlan(p *core.Plan) error {
	if p.Name == "" {
		return errors.New("plan needs a name")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.plans[p.Name] = clonePlan(*p)
	if b.cfg.OutputDir == "" {
		return nil
	}

	path := b.planPath(p.Name, b.format)
	if err := WriteFile(path, p); err != nil {
		return fmt.Errorf("failed to write plan %q: %w", p.Name, err)
	}
	b.log.Debug("Plan saved", "name", p.Name, "path", path)
	return nil
}

// LoadPlan returns a plan by name from memory or from any plan file.
func (b *Backend) LoadPlan(name string) (core.Plan, error) {
	b.mu.RLock()
	p, ok := b.plans[name]
	b.mu.RUnlock()
	if ok {
		return clonePlan(p), nil
	}

	if b.cfg.OutputDir != "" {
		for _, f := range Formats {
			path := b.planPath(name, f)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return ReadPlanFile(path)
		}
	}
	return core.Plan{}, fmt.Errorf("%w: %s", core.ErrPlanNotFound, name)
}

// ListPlans returns the names of plans held in memory or on disk.
func (b *Backend) ListPlans() ([]string, error) {
	seen := make(map[string]bool)

	b.mu.RLock()
	for name := range b.plans {
		seen[name] = true
	}
	b.mu.RUnlock()

	if b.cfg.OutputDir != "" {
		entries, err := os.ReadDir(b.plansDir())
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to list plans: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := FormatOf(e.Name()); ok {
				seen[TrimExt(e.Name())] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// ReadPlanFile loads a plan from any supported file. A file without a name
// takes the name of the file.
func ReadPlanFile(path string) (core.Plan, error) {
	var p core.Plan
	if err := ReadFile(path, &p); err != nil {
		return core.Plan{}, err
	}
	if p.Name == "" {
		p.Name = TrimExt(filepath.Base(path))
	}
	return p, nil
}

// WritePlanFile writes p to path in the format its extension names.
func WritePlanFile(path string, p core.Plan) error {
	return WriteFile(path, p)
}

func (b *Backend) plansDir() string {
	return filepath.Join(b.cfg.OutputDir, "plans")
}

func (b *Backend) flightsDir() string {
	return filepath.Join(b.cfg.OutputDir, "flights")
}

func (b *Backend) planPath(name string, f Format) string {
	return filepath.Join(b.plansDir(), safeName(name)+f.Ext())
}

func safeName(name string) string {
	return strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_").Replace(name)
}

func clonePlan(p core.Plan) core.Plan {
	p.Commands = append([]string(nil), p.Commands...)
	p.Instructions = append([]core.Instruction(nil), p.Instructions...)
	return p
}
