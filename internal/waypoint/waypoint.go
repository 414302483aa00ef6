// Package waypoint tracks points of interest along a route and decides when
// each one should be announced to the user.
//
// Points are collected per category into lists sorted by route position. A
// cursor per category skips points the agent has already passed, and each
// remaining point moves through a forward-only announcement state machine as
// the agent gets closer. Lists, cursors and the route they were built from
// are published together as one immutable snapshot.
package waypoint

import (
	"cmp"
	"slices"

	"github.com/routecue/waypointd/pkg/core"
)

const (
	// LongAnnounceRadius is the "approaching" threshold in meters.
	LongAnnounceRadius = 700
	// ShortAnnounceRadius is the "now" threshold in meters.
	ShortAnnounceRadius = 150
	// AlarmsAnnounceRadius is the single threshold used for alarms.
	AlarmsAnnounceRadius = 150

	// ApproachLimit caps the approach batch per category and pass.
	ApproachLimit = 3
	// AnnounceLimit caps the announce batch per category and pass.
	AnnounceLimit = 3
)

// Route is the calculated route the points are matched against.
type Route interface {
	Locations() []core.LatLon
	IsEmpty() bool
	CurrentRouteIndex() int
	// DistanceToPoint is the route distance in meters from current progress
	// to the vertex at routeIndex, 0 when passed or unknown.
	DistanceToPoint(routeIndex int) int
	// CurrentMaxSpeed is the current segment's limit in m/s, 0 if unknown.
	CurrentMaxSpeed() float64
	Alarms() []core.Point
	IndexOfIntermediate(k int) int
	LocationPoints() []core.Point
}

// PointSource supplies plain user points such as favorites or GPX waypoints.
type PointSource interface {
	Points() []core.Point
}

// TargetSource supplies the remaining intermediate stops followed by the
// final destination.
type TargetSource interface {
	Targets() []core.Point
}

// TargetRemover commits the removal of targets. keep has one entry per
// target as returned by TargetSource, false for those to drop.
type TargetRemover interface {
	RemoveTargets(keep []bool)
}

// POISearcher finds amenities within radius meters of a path.
type POISearcher interface {
	SearchOnPath(path []core.LatLon, radius int) []core.AmenityMatch
}

// DistanceComparator decides whether dist is "less" than etalon at the given
// speed. Implementations may treat a point as close when the time to reach it
// is short even though the raw distance is not.
type DistanceComparator interface {
	IsDistanceLess(speed, dist, etalon float64) bool
}

// Sink receives the batches produced by evaluation passes.
type Sink interface {
	DistanceComparator
	Approach(fix core.Fix, category core.Category, points []RoutePoint)
	Announce(category core.Category, points []RoutePoint)
	AnnounceAlarm(alarm core.AlarmType, speed float64)
	AnnounceSpeedAlarm(limit int, speed float64)
}

// RoutePoint is a point matched onto the route.
type RoutePoint struct {
	Category core.Category `json:"category"`
	Point    core.Point    `json:"point"`
	// Deviation is the distance in meters from the point to the route.
	Deviation float64 `json:"deviation"`
	// RouteIndex is the route vertex the point was matched to.
	RouteIndex int `json:"routeIndex"`
	// Announce is false for display-only points.
	Announce bool `json:"announce"`
}

func (p RoutePoint) same(o RoutePoint) bool {
	return p.Category == o.Category && p.RouteIndex == o.RouteIndex && p.Point.Key() == o.Point.Key()
}

func compareRoutePoints(a, b RoutePoint) int {
	if c := cmp.Compare(a.RouteIndex, b.RouteIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.Deviation, b.Deviation)
}

func sortRoutePoints(points []RoutePoint) {
	slices.SortStableFunc(points, compareRoutePoints)
}

func usable(r Route) bool {
	return r != nil && !r.IsEmpty()
}

type plainComparator struct{}

func (plainComparator) IsDistanceLess(_, dist, etalon float64) bool {
	return dist < etalon
}

// discardSink is used when no sink is configured.
type discardSink struct {
	plainComparator
}

func (discardSink) Approach(core.Fix, core.Category, []RoutePoint) {}
func (discardSink) Announce(core.Category, []RoutePoint)           {}
func (discardSink) AnnounceAlarm(core.AlarmType, float64)          {}
func (discardSink) AnnounceSpeedAlarm(int, float64)                {}
