// internal/storage/memory/export.go
package memory

import (
	"fmt"
	"path/filepath"

	v1 "github.com/dronepath/autopilot/internal/storage/memory/export/v1"
	"github.com/dronepath/autopilot/pkg/core"
)

// exportFlight writes rec to the flights directory. Called with b.mu held.
func (b *Backend) exportFlight(rec FlightRecord) error {
	export := v1.Build(&v1.FlightData{
		Flight:        rec.Flight,
		Waypoints:     rec.Waypoints,
		EndTime:       rec.EndTime,
		Home:          b.home,
		MetersPerUnit: b.metersPerUnit,
	})

	filename := fmt.Sprintf("%s_%d_%s%s",
		safeName(rec.Flight.PlanName),
		rec.Flight.ID,
		rec.Flight.StartTime.Format("20060102_150405"),
		b.format.Ext(),
	)
	outputPath := filepath.Join(b.flightsDir(), filename)

	if err := WriteFile(outputPath, export); err != nil {
		return fmt.Errorf("failed to export flight %d: %w", rec.Flight.ID, err)
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		PlanName:     rec.Flight.PlanName,
		Instructions: rec.Flight.Steps,
		PathLength:   export.PathLength,
		Tag:          "flight",
	}
	b.log.Info("Flight exported", "path", outputPath, "waypoints", len(rec.Waypoints))
	return nil
}

// ReadFlightExport loads an export written by a finished flight.
func ReadFlightExport(path string) (v1.Export, error) {
	var export v1.Export
	err := ReadFile(path, &export)
	return export, err
}

// GetExportedFilePath returns the path of the last exported flight.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported flight.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
