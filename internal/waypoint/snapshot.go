package waypoint

import (
	"sync/atomic"

	"github.com/routecue/waypointd/pkg/core"
)

// Cursor marks how far into a category list the agent has progressed. All
// points before its value have been passed.
type Cursor struct {
	v atomic.Int64
}

// Value returns the current position.
func (c *Cursor) Value() int {
	return int(c.v.Load())
}

// Advance moves the cursor past every point whose route index is below
// current and returns the new position. It never moves backwards.
func (c *Cursor) Advance(list []RoutePoint, current int) int {
	start := c.Value()
	k := start
	for k < len(list) && list[k].RouteIndex < current {
		k++
	}
	for k > start {
		if c.v.CompareAndSwap(int64(start), int64(k)) {
			return k
		}
		start = c.Value()
	}
	return start
}

func seededCursor(list []RoutePoint, r Route) *Cursor {
	c := &Cursor{}
	if usable(r) {
		c.Advance(list, r.CurrentRouteIndex())
	}
	return c
}

// snapshot is everything an evaluation pass reads. It is never mutated after
// publication except through its cursors and state store.
type snapshot struct {
	route   Route
	lists   [core.CategoryCount][]RoutePoint
	cursors [core.CategoryCount]*Cursor
	states  *StateStore
}

func newSnapshot(r Route, states *StateStore) *snapshot {
	s := &snapshot{route: r, states: states}
	for i := range s.cursors {
		s.cursors[i] = &Cursor{}
	}
	return s
}

// withList returns a copy with one category list replaced. Other categories
// share their lists and cursors with the receiver.
func (s *snapshot) withList(c core.Category, list []RoutePoint) *snapshot {
	next := *s
	next.lists[c] = list
	next.cursors[c] = seededCursor(list, s.route)
	return &next
}

func (s *snapshot) usable() bool {
	return s != nil && usable(s.route)
}

// remaining returns the points of a category from its cursor onwards.
func (s *snapshot) remaining(c core.Category) []RoutePoint {
	list := s.lists[c]
	k := s.cursors[c].Value()
	if k >= len(list) {
		return nil
	}
	return list[k:]
}
