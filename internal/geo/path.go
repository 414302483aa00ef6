package geo

import (
	"math"

	"github.com/routecue/waypointd/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Path is a route polyline with its vertices projected once so that many
// points can be matched against it.
type Path struct {
	locations []core.LatLon
	projected []geom.XY
}

// NewPath projects locations. The slice is not copied and must not change.
func NewPath(locations []core.LatLon) *Path {
	projected := make([]geom.XY, len(locations))
	for i, l := range locations {
		projected[i] = Project(l)
	}
	return &Path{locations: locations, projected: projected}
}

// Len returns the number of vertices.
func (p *Path) Len() int {
	return len(p.locations)
}

// Closest finds the segment nearest to pt. It returns the index of the later
// vertex of that segment and the ground distance to it. A path with fewer
// than two vertices matches nothing and returns -1 and +Inf.
func (p *Path) Closest(pt core.LatLon) (int, float64) {
	best, index := math.Inf(1), -1
	if len(p.locations) < 2 {
		return index, best
	}
	xy := Project(pt)
	scale := mercatorScale(pt.Lat)
	for i := 1; i < len(p.projected); i++ {
		var d float64
		if p.projected[i-1] == p.projected[i] {
			d = Distance(pt, p.locations[i])
		} else {
			d = segmentDistance(xy, p.projected[i-1], p.projected[i]) * scale
		}
		if d < best {
			best, index = d, i
		}
	}
	return index, best
}

// ClosestWithin is Closest restricted to segments ending in [from, to].
func (p *Path) ClosestWithin(pt core.LatLon, from, to int) (int, float64) {
	best, index := math.Inf(1), -1
	if from < 1 {
		from = 1
	}
	if to > len(p.projected)-1 {
		to = len(p.projected) - 1
	}
	xy := Project(pt)
	scale := mercatorScale(pt.Lat)
	for i := from; i <= to; i++ {
		d := segmentDistance(xy, p.projected[i-1], p.projected[i]) * scale
		if d < best {
			best, index = d, i
		}
	}
	return index, best
}

// IndexOf returns the position of an exact vertex, or -1.
func (p *Path) IndexOf(pt core.LatLon) int {
	for i, l := range p.locations {
		if l == pt {
			return i
		}
	}
	return -1
}
