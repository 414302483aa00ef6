package geo

import (
	"errors"
	"math"

	"github.com/routecue/waypointd/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Planar work is done in EPSG:3857 and scaled back to ground meters by the
// cosine of the latitude, which is accurate enough over the few hundred
// meters a route match cares about.

// EarthRadius is the mean radius used for great-circle distances, in meters.
const EarthRadius = 6372800.0

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var toMercator = wgs84.EPSG().Transform(4326, 3857)

// Valid reports whether p is inside the WGS84 coordinate range.
func Valid(p core.LatLon) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b core.LatLon) float64 {
	if a == b {
		return 0
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Project converts a WGS84 coordinate to web mercator.
func Project(p core.LatLon) geom.XY {
	x, y, _ := toMercator(p.Lon, p.Lat, 0)
	return geom.XY{X: x, Y: y}
}

// OrthogonalDistance returns the shortest ground distance in meters from p to
// the segment a-b.
func OrthogonalDistance(p, a, b core.LatLon) float64 {
	if a == b {
		return Distance(p, a)
	}
	return segmentDistance(Project(p), Project(a), Project(b)) * mercatorScale(p.Lat)
}

func segmentDistance(p, a, b geom.XY) float64 {
	seg := geom.NewLineString(geom.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, geom.DimXY))
	d, ok := geom.Distance(seg.AsGeometry(), p.AsPoint().AsGeometry())
	if !ok {
		return math.Inf(1)
	}
	return d
}

func mercatorScale(lat float64) float64 {
	return math.Cos(lat * math.Pi / 180)
}
