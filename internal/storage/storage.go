// internal/storage/storage.go
package storage

import "github.com/dronepath/autopilot/pkg/core"

// ErrPlanNotFound is returned by LoadPlan for unknown names.
var ErrPlanNotFound = core.ErrPlanNotFound

// Backend is the interface all storage implementations must satisfy.
// It receives every playback run and satisfies playback.Sink.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Flight recording
	StartFlight(f *core.Flight) error
	RecordWaypoint(w *core.Waypoint) error
	EndFlight() error
}

// PlanStore is an optional interface for backends that persist plans.
type PlanStore interface {
	SavePlan(p *core.Plan) error
	LoadPlan(name string) (core.Plan, error)
	ListPlans() ([]string, error)
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
