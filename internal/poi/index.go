package poi

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111226.0

// Index answers amenity searches along a path.
type Index struct {
	amenities []core.Point
	locations orb.MultiPoint
}

// NewIndex indexes amenities.
func NewIndex(amenities []core.Point) *Index {
	ix := &Index{
		amenities: amenities,
		locations: make(orb.MultiPoint, len(amenities)),
	}
	for i, a := range amenities {
		ix.locations[i] = orb.Point{a.Location.Lon, a.Location.Lat}
	}
	return ix
}

// LoadIndex reads amenities from a GeoJSON file.
func LoadIndex(path string) (*Index, error) {
	points, err := LoadFile(path, core.KindAmenity)
	if err != nil {
		return nil, err
	}
	return NewIndex(points), nil
}

// Len counts indexed amenities.
func (ix *Index) Len() int {
	return len(ix.amenities)
}

// SearchOnPath returns the amenities within radius meters of path. Each
// match carries the path vertex it was matched to.
func (ix *Index) SearchOnPath(path []core.LatLon, radius int) []core.AmenityMatch {
	if len(path) < 2 || len(ix.amenities) == 0 {
		return nil
	}
	bound := searchBound(path, float64(radius))
	p := geo.NewPath(path)

	var out []core.AmenityMatch
	for i, a := range ix.amenities {
		if !bound.Contains(ix.locations[i]) {
			continue
		}
		idx, d := p.Closest(a.Location)
		if idx < 0 || d > float64(radius) {
			continue
		}
		out = append(out, core.AmenityMatch{
			Point:     a,
			PathPoint: path[idx],
			Deviation: d,
		})
	}
	return out
}

// searchBound is the path's bounding box grown by radius meters.
func searchBound(path []core.LatLon, radius float64) orb.Bound {
	line := make(orb.LineString, len(path))
	maxLat := 0.0
	for i, l := range path {
		line[i] = orb.Point{l.Lon, l.Lat}
		maxLat = math.Max(maxLat, math.Abs(l.Lat))
	}
	// Longitude degrees shrink towards the poles, pad by the wider of the two.
	pad := radius / metersPerDegree / math.Max(math.Cos(maxLat*math.Pi/180), 0.01)
	return line.Bound().Pad(pad)
}
