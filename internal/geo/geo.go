// Package geo turns instruction lists and flown tracks into geometry: the build path
// drawn in the scene, its land line, and WGS84 positions around a home anchor.
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/dronepath/autopilot/pkg/core"
)

// ErrShortPath is returned when a line needs at least two points.
var ErrShortPath = errors.New("path needs at least two points")

// LatLon anchors the scene origin on the globe.
type LatLon struct {
	Lat float64
	Lon float64
}

// PathPoints accumulates the draw deltas of list from core.BuildStart.
// Entries without a draw delta add no point.
func PathPoints(list []core.Instruction) []core.Vec3 {
	points := []core.Vec3{core.BuildStart}
	p := core.BuildStart
	for _, ins := range list {
		if ins.Draw == (core.Vec3{}) {
			continue
		}
		p = p.Add(ins.Draw)
		points = append(points, p)
	}
	return points
}

// LandLine drops a vertical from the tip of the path to the floor. It reports
// false while the tip is still at the build start.
func LandLine(tip core.Vec3) ([2]core.Vec3, bool) {
	if tip == core.BuildStart {
		return [2]core.Vec3{}, false
	}
	return [2]core.Vec3{tip, {X: tip.X, Y: 0, Z: tip.Z}}, true
}

// LineString builds an XYZ line from scene points.
func LineString(points []core.Vec3) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrShortPath
	}
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// PathLineString is the drawn path of list as a line.
func PathLineString(list []core.Instruction) (geom.LineString, error) {
	return LineString(PathPoints(list))
}

// Rendering is the drawable form of an instruction list.
type Rendering struct {
	Points   []core.Vec3
	WKT      string
	Length   float64
	LandLine []core.Vec3 // tip and its floor projection, empty at the build start
}

// Render collects the drawn path of list, its WKT line and the land line from its tip.
func Render(list []core.Instruction) Rendering {
	points := PathPoints(list)
	r := Rendering{Points: points, Length: Length(points)}
	if ls, err := PathLineString(list); err == nil {
		r.WKT = ls.AsText()
	}
	if land, ok := LandLine(points[len(points)-1]); ok {
		r.LandLine = land[:]
	}
	return r
}

// WKT renders points as a LINESTRING Z, or "" when there are fewer than two.
func WKT(points []core.Vec3) string {
	ls, err := LineString(points)
	if err != nil {
		return ""
	}
	return ls.AsText()
}

// Length sums the 3D segment lengths of points.
func Length(points []core.Vec3) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Length()
	}
	return total
}

// ToWGS84 places a scene offset (X west, Y up, Z north) around home.
// metersPerUnit converts scene units to meters.
func ToWGS84(home LatLon, offset core.Vec3, metersPerUnit float64) (lon, lat, alt float64) {
	epsg := wgs84.EPSG()
	toMercator := epsg.Transform(4326, 3857)
	fromMercator := epsg.Transform(3857, 4326)

	// web mercator stretches distances by 1/cos(lat)
	stretch := 1 / math.Cos(home.Lat*math.Pi/180)
	east := -offset.X * metersPerUnit * stretch
	north := offset.Z * metersPerUnit * stretch

	x, y, _ := toMercator(home.Lon, home.Lat, 0)
	lon, lat, _ = fromMercator(x+east, y+north, 0)
	return lon, lat, offset.Y * metersPerUnit
}

// TrackLineString converts a scene track into a lon/lat/alt line.
func TrackLineString(home LatLon, track []core.Vec3, metersPerUnit float64) (geom.LineString, error) {
	if len(track) < 2 {
		return geom.LineString{}, ErrShortPath
	}
	flat := make([]float64, 0, len(track)*3)
	for _, p := range track {
		lon, lat, alt := ToWGS84(home, p, metersPerUnit)
		flat = append(flat, lon, lat, alt)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// TrackGeoJSON encodes a scene track as a GeoJSON LineString geometry.
func TrackGeoJSON(home LatLon, track []core.Vec3, metersPerUnit float64) ([]byte, error) {
	ls, err := TrackLineString(home, track, metersPerUnit)
	if err != nil {
		return nil, err
	}
	return ls.MarshalJSON()
}
