// Package session holds the current navigation session: its identity, the
// active route and the remaining target stops.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/routecue/waypointd/internal/route"
	"github.com/routecue/waypointd/pkg/core"
)

// Context holds the current session, route and targets
type Context struct {
	mu      sync.RWMutex
	session core.Session
	active  bool
	route   *route.Route
	// targets are the intermediates in order, then the destination
	targets []core.Point
}

// NewContext creates a Context with no session
func NewContext() *Context {
	return &Context{}
}

// Start opens a new session with a fresh id and returns it.
func (c *Context) Start(label string, now time.Time) core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = core.Session{
		ID:         uuid.NewString(),
		RouteLabel: label,
		StartedAt:  now.UTC(),
	}
	c.active = true
	return c.session
}

// End stamps the end time on the current session and returns it. The second
// return is false when no session was open.
func (c *Context) End(now time.Time) (core.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return core.Session{}, false
	}
	c.session.EndedAt = now.UTC()
	c.active = false
	return c.session, true
}

// Current returns the open session, if any.
func (c *Context) Current() (core.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.active
}

// ID returns the open session's id, empty when none is open.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active {
		return ""
	}
	return c.session.ID
}

// SetRoute installs the active route. Intermediate stops are taken from the
// route's intermediate vertices, the destination is its last vertex.
func (c *Context) SetRoute(r *route.Route, intermediateNames []string, destinationName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = r
	c.targets = nil
	if r.IsEmpty() {
		return
	}
	locs := r.Locations()
	for i := 0; i < r.IntermediateCount(); i++ {
		idx := r.IndexOfIntermediate(i)
		p := core.Point{
			Kind:     core.KindTarget,
			Location: locs[idx],
			Target:   &core.TargetInfo{Intermediate: true, Index: i},
		}
		if i < len(intermediateNames) {
			p.Name = intermediateNames[i]
		}
		c.targets = append(c.targets, p)
	}
	c.targets = append(c.targets, core.Point{
		Kind:     core.KindTarget,
		Name:     destinationName,
		Location: locs[len(locs)-1],
		Target:   &core.TargetInfo{},
	})
}

// ClearRoute drops the active route and its targets.
func (c *Context) ClearRoute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = nil
	c.targets = nil
}

// Route returns the active route, nil when none is set.
func (c *Context) Route() *route.Route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.route
}

// Targets returns the remaining intermediates followed by the destination.
func (c *Context) Targets() []core.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Point, len(c.targets))
	copy(out, c.targets)
	return out
}

// RemoveTargets drops the targets whose keep entry is false. Remaining
// intermediates are renumbered and the route forgets the dropped stops.
// The destination is kept unless it is explicitly dropped.
func (c *Context) RemoveTargets(keep []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.targets) == 0 {
		return
	}
	inter := 0
	for _, t := range c.targets {
		if t.Target.Intermediate {
			inter++
		}
	}
	next := make([]core.Point, 0, len(c.targets))
	n := 0
	for i, t := range c.targets {
		if i < len(keep) && !keep[i] {
			continue
		}
		if t.Target.Intermediate {
			info := *t.Target
			info.Index = n
			t.Target = &info
			n++
		}
		next = append(next, t)
	}
	if c.route != nil {
		c.route.DropIntermediates(keep[:min(len(keep), inter)])
	}
	c.targets = next
}
