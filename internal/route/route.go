// Package route holds a calculated route and tracks the agent's progress along it.
package route

import (
	"math"
	"sync/atomic"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
)

// lookAhead bounds how many segments past the current one a fix may snap to.
const lookAhead = 20

// offRouteDistance is the distance beyond which a fix does not advance progress.
const offRouteDistance = 250.0

// Options carries the optional per-route data produced by route calculation.
type Options struct {
	// MaxSpeeds holds the speed limit in m/s of the segment ending at each
	// vertex. Missing or zero entries mean unknown.
	MaxSpeeds []float64
	// Alarms are route-indexed hazard candidates.
	Alarms []core.Point
	// Intermediates holds the vertex index of each intermediate stop in order.
	Intermediates []int
	// LocationPoints are waypoints that belong to the route itself.
	LocationPoints []core.Point
}

// Route is an immutable calculated route plus a monotonic progress index.
type Route struct {
	id        string
	locations []core.LatLon
	path      *geo.Path
	// distToEnd[i] is the remaining route length from vertex i, in meters.
	distToEnd []float64
	opts      Options
	current   atomic.Int64
	// intermediates shrinks as stops are removed
	intermediates atomic.Pointer[[]int]
}

// New builds a route. The locations slice is owned by the route afterwards.
func New(id string, locations []core.LatLon, opts Options) *Route {
	r := &Route{
		id:        id,
		locations: locations,
		path:      geo.NewPath(locations),
		distToEnd: make([]float64, len(locations)),
		opts:      opts,
	}
	for i := len(locations) - 2; i >= 0; i-- {
		r.distToEnd[i] = r.distToEnd[i+1] + geo.Distance(locations[i], locations[i+1])
	}
	if len(locations) > 1 {
		r.current.Store(1)
	}
	inter := append([]int(nil), opts.Intermediates...)
	r.intermediates.Store(&inter)
	return r
}

// ID identifies the route calculation.
func (r *Route) ID() string {
	return r.id
}

// Locations returns the route vertices. Callers must not modify the slice.
func (r *Route) Locations() []core.LatLon {
	return r.locations
}

// Path returns the projected polyline.
func (r *Route) Path() *geo.Path {
	return r.path
}

// IsEmpty reports whether the route has no usable geometry.
func (r *Route) IsEmpty() bool {
	return r == nil || len(r.locations) < 2
}

// CurrentRouteIndex is the index of the vertex the agent is heading to.
func (r *Route) CurrentRouteIndex() int {
	return int(r.current.Load())
}

// TotalDistance is the full route length in meters.
func (r *Route) TotalDistance() float64 {
	if len(r.distToEnd) == 0 {
		return 0
	}
	return r.distToEnd[0]
}

// DistanceToPoint is the route distance from the current progress to the
// vertex at routeIndex. Passed or out of range indexes yield 0.
func (r *Route) DistanceToPoint(routeIndex int) int {
	cur := r.CurrentRouteIndex()
	if routeIndex <= cur || routeIndex >= len(r.distToEnd) || cur >= len(r.distToEnd) {
		return 0
	}
	return int(math.Round(r.distToEnd[cur] - r.distToEnd[routeIndex]))
}

// CurrentMaxSpeed is the speed limit of the current segment in m/s, 0 if unknown.
func (r *Route) CurrentMaxSpeed() float64 {
	cur := r.CurrentRouteIndex()
	if cur < 0 || cur >= len(r.opts.MaxSpeeds) {
		return 0
	}
	return r.opts.MaxSpeeds[cur]
}

// Alarms returns the route's hazard candidates.
func (r *Route) Alarms() []core.Point {
	return r.opts.Alarms
}

// LocationPoints returns the waypoints that came with the route.
func (r *Route) LocationPoints() []core.Point {
	return r.opts.LocationPoints
}

// IndexOfIntermediate returns the vertex index of the k-th intermediate stop,
// falling back to the last vertex when k is unknown.
func (r *Route) IndexOfIntermediate(k int) int {
	inter := *r.intermediates.Load()
	if k >= 0 && k < len(inter) {
		return inter[k]
	}
	return len(r.locations) - 1
}

// IntermediateCount is the number of intermediate stops still on the route.
func (r *Route) IntermediateCount() int {
	return len(*r.intermediates.Load())
}

// DropIntermediates keeps only the intermediate stops whose keep entry is
// true. Entries beyond the known stops are ignored.
func (r *Route) DropIntermediates(keep []bool) {
	cur := *r.intermediates.Load()
	next := make([]int, 0, len(cur))
	for i, idx := range cur {
		if i >= len(keep) || keep[i] {
			next = append(next, idx)
		}
	}
	r.intermediates.Store(&next)
}

// UpdateCurrentPosition snaps loc to the route just ahead of the current
// progress and advances it. Progress never moves backwards. It returns the
// resulting index.
func (r *Route) UpdateCurrentPosition(loc core.LatLon) int {
	cur := r.CurrentRouteIndex()
	if r.IsEmpty() {
		return cur
	}
	idx, d := r.path.ClosestWithin(loc, cur, cur+lookAhead)
	if idx < 0 || d > offRouteDistance {
		return cur
	}
	for {
		if int64(idx) <= r.current.Load() {
			return r.CurrentRouteIndex()
		}
		if r.current.CompareAndSwap(int64(cur), int64(idx)) {
			return idx
		}
		cur = r.CurrentRouteIndex()
	}
}

// SetCurrentRouteIndex forces progress forward to idx; smaller values are ignored.
func (r *Route) SetCurrentRouteIndex(idx int) {
	for {
		cur := r.current.Load()
		if int64(idx) <= cur || idx >= len(r.locations)+1 {
			return
		}
		if r.current.CompareAndSwap(cur, int64(idx)) {
			return
		}
	}
}
