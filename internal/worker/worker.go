package worker

import (
	"time"

	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/logging"
	"github.com/dronepath/autopilot/internal/parser"
	"github.com/dronepath/autopilot/internal/storage"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Service       *handlers.Service
	ParserService *parser.Parser
	LogManager    *logging.SlogManager
	SendTimeout   time.Duration
}

// Manager turns dispatched operator events into handler calls
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// PendingProvider is an optional interface for backends that queue writes.
type PendingProvider interface {
	Pending() int
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// GetPendingWrites returns how many waypoints wait for the backend writer.
func (m *Manager) GetPendingWrites() int {
	if p, ok := m.backend.(PendingProvider); ok {
		return p.Pending()
	}
	return 0
}
