// Package monitor periodically reports session and storage status.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/influx"
	"github.com/dronepath/autopilot/internal/logging"
	"github.com/dronepath/autopilot/internal/worker"
)

// PointWriter accepts status points. *influx.Manager satisfies it.
type PointWriter interface {
	Bucket() string
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Service       *handlers.Service
	WorkerManager *worker.Manager
	LogManager    *logging.SlogManager
	Influx        PointWriter
	// StatusFile is rewritten with the latest report on every tick when set.
	StatusFile string
	Interval   time.Duration
}

// Report is one status sample.
type Report struct {
	Time                time.Time       `json:"time"`
	Session             handlers.Status `json:"session"`
	PendingWrites       int             `json:"pendingWrites"`
	LastWriteDurationMs float32         `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		if l := s.deps.LogManager.Logger(); l != nil {
			return l
		}
	}
	return slog.Default()
}

// GetProgramStatus samples the session and storage backend.
func (s *Service) GetProgramStatus() Report {
	r := Report{Time: time.Now()}
	if s.deps.Service != nil {
		r.Session = s.deps.Service.Status()
	}
	if s.deps.WorkerManager != nil {
		r.PendingWrites = s.deps.WorkerManager.GetPendingWrites()
		r.LastWriteDurationMs = float32(s.deps.WorkerManager.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	return r
}

// StatusPoint converts a report into an influx point.
func StatusPoint(r Report) *influxdb2_write.Point {
	fields := map[string]any{
		"instructions":        r.Session.Instructions,
		"pathLength":          r.Session.PathLength,
		"playing":             r.Session.Playing,
		"blocked":             len(r.Session.Blocked),
		"pendingWrites":       r.PendingWrites,
		"lastWriteDurationMs": r.LastWriteDurationMs,
	}
	if r.Session.LastSend != nil {
		fields["lastSendOk"] = r.Session.LastSend.Err == nil
	}
	return influxdb2_write.NewPoint(influx.MeasurementStatus,
		map[string]string{"plan": r.Session.Plan, "orientation": r.Session.Orientation},
		fields,
		r.Time,
	)
}

// Tick samples once and publishes the report to the log, the status file and influx.
func (s *Service) Tick() Report {
	r := s.GetProgramStatus()
	logger := s.logger()

	logger.Debug("Session status",
		"plan", r.Session.Plan,
		"instructions", r.Session.Instructions,
		"playing", r.Session.Playing,
		"pendingWrites", r.PendingWrites,
		"lastWriteMs", r.LastWriteDurationMs,
	)

	if s.deps.StatusFile != "" {
		if err := writeStatusFile(s.deps.StatusFile, r); err != nil {
			logger.Error("Error writing status file", "error", err)
		}
	}

	if s.deps.Influx != nil {
		if err := s.deps.Influx.WritePoint(s.deps.Influx.Bucket(), StatusPoint(r)); err != nil {
			logger.Error("Error writing status point", "error", err)
		}
	}
	return r
}

func writeStatusFile(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.logger().Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
