package waypoint

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/routecue/waypointd/internal/route"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/stretchr/testify/require"
)

// Vertices are 0.0001 deg of longitude apart on the equator, about 11.1 m.
const step = 0.0001

// metersToDeg converts a north offset in meters to degrees of latitude.
func metersToDeg(m float64) float64 {
	return m / 111226.0
}

func vertex(i int) core.LatLon {
	return core.LatLon{Lat: 0, Lon: float64(i) * step}
}

func newRoute(id string, n int, opts route.Options) *route.Route {
	locs := make([]core.LatLon, n)
	for i := range locs {
		locs[i] = vertex(i)
	}
	return route.New(id, locs, opts)
}

// pointNear returns a point beside the segment ending at vertex i, offset
// meters north of the route.
func pointNear(id string, kind core.PointKind, i int, offset float64) core.Point {
	return core.Point{
		ID:       id,
		Kind:     kind,
		Name:     id,
		Location: core.LatLon{Lat: metersToDeg(offset), Lon: (float64(i) - 0.5) * step},
	}
}

func alarmAt(t core.AlarmType, i int) core.Point {
	return core.Point{
		Kind:     core.KindAlarm,
		Location: vertex(i),
		Alarm:    &core.AlarmInfo{Type: t, RouteIndex: i},
	}
}

func fixAt(i int, speed float64) core.Fix {
	return core.Fix{LatLon: vertex(i), Speed: speed, HasSpeed: speed > 0}
}

type staticPoints []core.Point

func (s staticPoints) Points() []core.Point  { return s }
func (s staticPoints) Targets() []core.Point { return s }

type fakeSearcher struct {
	matches []core.AmenityMatch
	radius  int
	calls   int
}

func (f *fakeSearcher) SearchOnPath(_ []core.LatLon, radius int) []core.AmenityMatch {
	f.calls++
	f.radius = radius
	return f.matches
}

type fakeRemover struct {
	keep []bool
}

func (f *fakeRemover) RemoveTargets(keep []bool) {
	f.keep = keep
}

type batch struct {
	category core.Category
	stage    core.Stage
	points   []RoutePoint
}

// recordingSink records every call. Distances compare plainly.
type recordingSink struct {
	plainComparator
	mu          sync.Mutex
	batches     []batch
	alarms      []core.AlarmType
	speedAlarms []int
}

func (s *recordingSink) Approach(_ core.Fix, c core.Category, points []RoutePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch{c, core.StageApproach, append([]RoutePoint(nil), points...)})
}

func (s *recordingSink) Announce(c core.Category, points []RoutePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch{c, core.StageAnnounce, append([]RoutePoint(nil), points...)})
}

func (s *recordingSink) AnnounceAlarm(t core.AlarmType, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, t)
}

func (s *recordingSink) AnnounceSpeedAlarm(limit int, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speedAlarms = append(s.speedAlarms, limit)
}

func (s *recordingSink) stage(stage core.Stage) []batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []batch
	for _, b := range s.batches {
		if b.stage == stage {
			out = append(out, b)
		}
	}
	return out
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func ids(points []RoutePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Point.ID
	}
	return out
}

func newHelper(t *testing.T, deps Dependencies, s Settings) (*Helper, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	if deps.Sink == nil {
		deps.Sink = sink
	}
	h, err := New(deps, s)
	require.NoError(t, err)
	return h, sink
}

func favorites(n, at int, offset float64) staticPoints {
	out := make(staticPoints, n)
	for i := range out {
		out[i] = pointNear(fmt.Sprintf("fav-%d", i), core.KindFavorite, at, offset+float64(i))
	}
	return out
}
