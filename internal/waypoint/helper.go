package waypoint

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/routecue/waypointd/pkg/core"
)

// Dependencies holds the collaborators of a Helper. Every field is optional.
type Dependencies struct {
	Favorites     PointSource
	Waypoints     PointSource
	Targets       TargetSource
	POI           POISearcher
	TargetRemover TargetRemover
	Sink          Sink
	Logger        *slog.Logger
	// Now is the clock used for alarm cooldowns.
	Now func() time.Time
}

// Helper keeps the per-category point lists for the active route and turns
// location updates into announcements.
type Helper struct {
	collector Collector
	remover   TargetRemover
	sink      Sink
	log       *slog.Logger
	now       func() time.Time
	metrics   *metrics

	settings atomic.Pointer[Settings]
	snap     atomic.Pointer[snapshot]
	lastFix  atomic.Pointer[core.Fix]

	// mu serializes snapshot writers, passMu evaluation passes.
	mu       sync.Mutex
	passMu   sync.Mutex
	cooldown cooldown
}

// New creates a Helper with no route.
func New(deps Dependencies, settings Settings) (*Helper, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	h := &Helper{
		collector: Collector{
			Favorites: deps.Favorites,
			Waypoints: deps.Waypoints,
			Targets:   deps.Targets,
			POI:       deps.POI,
		},
		remover: deps.TargetRemover,
		sink:    deps.Sink,
		log:     deps.Logger,
		now:     deps.Now,
		metrics: m,
	}
	if h.sink == nil {
		h.sink = discardSink{}
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.settings.Store(&settings)
	h.snap.Store(newSnapshot(nil, NewStateStore()))
	return h, nil
}

// Settings returns the settings in effect.
func (h *Helper) Settings() Settings {
	return *h.settings.Load()
}

// ApplySettings replaces all settings and rebuilds every category.
func (h *Helper) ApplySettings(s Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.Store(&s)
	cur := h.snap.Load()
	h.snap.Store(h.build(cur.route, cur.states))
}

// SetNewRoute replaces the route, rebuilds all lists and resets cursors and
// announcement states.
func (h *Helper) SetNewRoute(r Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap.Store(h.build(r, NewStateStore()))
}

func (h *Helper) build(r Route, states *StateStore) *snapshot {
	s := h.Settings()
	next := newSnapshot(r, states)
	if !usable(r) {
		return next
	}
	ctx := context.Background()
	for _, c := range core.Categories() {
		if c == core.Targets {
			continue
		}
		next.lists[c] = h.collector.Collect(r, c, s)
		next.cursors[c] = seededCursor(next.lists[c], r)
		h.metrics.rebuilt(ctx, c)
	}
	h.log.Debug("Rebuilt route points",
		"waypoints", len(next.lists[core.Waypoints]),
		"poi", len(next.lists[core.POI]),
		"favorites", len(next.lists[core.Favorites]),
		"alarms", len(next.lists[core.Alarms]),
	)
	return next
}

// Route returns the route of the current snapshot, nil if none.
func (h *Helper) Route() Route {
	return h.snap.Load().route
}

// IsRouteCalculated reports whether a non-empty route is set.
func (h *Helper) IsRouteCalculated() bool {
	return h.snap.Load().usable()
}

// ClearAllVisiblePoints drops every collected point. Announcement states are
// kept so points reappearing on the same route are not announced twice.
func (h *Helper) ClearAllVisiblePoints() {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur := h.snap.Load()
	h.snap.Store(newSnapshot(cur.route, cur.states))
}

// RecalculatePoints rebuilds a single category against the current route.
func (h *Helper) RecalculatePoints(c core.Category) {
	if !c.Valid() || c == core.Targets {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cur := h.snap.Load()
	if !cur.usable() {
		return
	}
	list := h.collector.Collect(cur.route, c, h.Settings())
	h.snap.Store(cur.withList(c, list))
	h.metrics.rebuilt(context.Background(), c)
	h.log.Debug("Recalculated category", "category", c, "points", len(list))
}

// EnableCategory switches both show and announce for a category and
// rebuilds it. Camera settings are left alone for alarms.
func (h *Helper) EnableCategory(c core.Category, enable bool) {
	if !h.IsCategoryConfigurable(c) {
		return
	}
	h.updateSettings(func(s Settings) Settings { return s.withCategory(c, enable) })
	h.RecalculatePoints(c)
}

// IsCategoryConfigurable is false for targets, which are always shown.
func (h *Helper) IsCategoryConfigurable(c core.Category) bool {
	return c.Valid() && c != core.Targets
}

// IsCategoryEnabled reports whether a category is switched on.
func (h *Helper) IsCategoryEnabled(c core.Category) bool {
	return h.Settings().enabled(c)
}

// SearchDeviationRadius returns the matching radius for a category in meters.
func (h *Helper) SearchDeviationRadius(c core.Category) int {
	return h.Settings().deviationRadius(c)
}

// SetSearchDeviationRadius snaps r to an allowed value, stores it and
// rebuilds the categories using it. It returns the radius applied.
func (h *Helper) SetSearchDeviationRadius(c core.Category, r int) int {
	r = SnapRadius(r)
	h.updateSettings(func(s Settings) Settings {
		if c == core.POI {
			s.POISearchDeviationRadius = r
		} else {
			s.SearchDeviationRadius = r
		}
		return s
	})
	if c == core.POI {
		h.RecalculatePoints(core.POI)
	} else {
		h.RecalculatePoints(core.Waypoints)
		h.RecalculatePoints(core.Favorites)
	}
	return r
}

func (h *Helper) updateSettings(fn func(Settings) Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := fn(h.Settings())
	h.settings.Store(&s)
}

// LocationChanged runs one evaluation pass for the fix and forwards the
// resulting batches to the sink. Passes never overlap.
func (h *Helper) LocationChanged(fix core.Fix) {
	h.lastFix.Store(&fix)

	h.passMu.Lock()
	defer h.passMu.Unlock()

	snap := h.snap.Load()
	if !snap.usable() {
		return
	}
	res := snap.evaluate(fix, h.sink)
	h.metrics.passes.Add(context.Background(), 1)
	if res.empty() {
		return
	}
	h.dispatch(fix, res)
}

// LastFix returns the most recent fix passed to LocationChanged.
func (h *Helper) LastFix() (core.Fix, bool) {
	f := h.lastFix.Load()
	if f == nil {
		return core.Fix{}, false
	}
	return *f, true
}

// State returns the announcement state of a point.
func (h *Helper) State(p RoutePoint) State {
	return h.snap.Load().states.Get(p.Point.Key())
}

// Points returns a category list. Targets are derived on demand.
func (h *Helper) Points(c core.Category) []RoutePoint {
	snap := h.snap.Load()
	if c == core.Targets {
		return h.collector.TargetPoints(snap.route)
	}
	if !c.Valid() {
		return nil
	}
	return append([]RoutePoint(nil), snap.lists[c]...)
}

// AllPoints returns every point not yet passed plus the targets, in route order.
func (h *Helper) AllPoints() []RoutePoint {
	snap := h.snap.Load()
	var out []RoutePoint
	for _, c := range core.Categories() {
		out = append(out, snap.remaining(c)...)
	}
	out = append(out, h.collector.TargetPoints(snap.route)...)
	sortRoutePoints(out)
	return out
}

// RemoveVisiblePoints drops points from their lists. Removed targets are
// forwarded to the TargetRemover.
func (h *Helper) RemoveVisiblePoints(points ...RoutePoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.snap.Load()
	next := cur
	var keep []bool
	var targetCount int
	for _, p := range points {
		switch {
		case p.Category == core.Targets:
			if keep == nil {
				if h.collector.Targets != nil {
					targetCount = len(h.collector.Targets.Targets())
				}
				keep = make([]bool, targetCount)
				for i := range keep {
					keep[i] = true
				}
			}
			i := targetCount - 1
			if t := p.Point.Target; t != nil && t.Intermediate {
				i = t.Index
			}
			if i >= 0 && i < targetCount {
				keep[i] = false
			}
		case p.Category.Valid():
			list := next.lists[p.Category]
			filtered := make([]RoutePoint, 0, len(list))
			for _, rp := range list {
				if !rp.same(p) {
					filtered = append(filtered, rp)
				}
			}
			if len(filtered) != len(list) {
				next = next.withList(p.Category, filtered)
			}
		}
	}
	if next != cur {
		h.snap.Store(next)
	}
	if keep != nil && h.remover != nil {
		h.remover.RemoveTargets(keep)
	}
}

// RouteDistance is the route distance in meters from current progress to p.
func (h *Helper) RouteDistance(p RoutePoint) int {
	snap := h.snap.Load()
	if !snap.usable() {
		return 0
	}
	return snap.route.DistanceToPoint(p.RouteIndex)
}

// MostImportantUpcomingPoint returns the nearest not yet passed waypoint,
// POI or favorite within the long announce radius.
func (h *Helper) MostImportantUpcomingPoint() (RoutePoint, bool) {
	snap := h.snap.Load()
	if !snap.usable() {
		return RoutePoint{}, false
	}
	current := snap.route.CurrentRouteIndex()
	var found RoutePoint
	ok := false
	for _, c := range core.Categories() {
		if c == core.Alarms || c == core.Targets {
			continue
		}
		for _, rp := range snap.remaining(c) {
			if rp.RouteIndex < current {
				continue
			}
			if snap.route.DistanceToPoint(rp.RouteIndex) <= LongAnnounceRadius &&
				(!ok || compareRoutePoints(rp, found) < 0) {
				found, ok = rp, true
			}
			break
		}
	}
	return found, ok
}

// MostImportantAlarm resolves the most urgent alarm at the last known fix.
// A synthesized speed alarm is also forwarded to the sink.
func (h *Helper) MostImportantAlarm(units core.Units, showCameras bool) *Alarm {
	snap := h.snap.Load()
	if !snap.usable() {
		return nil
	}
	fix, hasFix := h.LastFix()
	a := snap.mostImportantAlarm(fix, hasFix, h.Settings(), units, showCameras)
	if a != nil && a.Type == core.AlarmSpeedLimit && a.RouteIndex < 0 {
		h.sink.AnnounceSpeedAlarm(a.Value, fix.SpeedOrZero())
	}
	return a
}

// SegmentAlarm resolves an alarm from the raw road segment ahead: a speed
// violation first, then the first hazard tag. Hazards are announced at most
// once per AlarmCooldown for each type.
func (h *Helper) SegmentAlarm(seg core.RoadSegment, fix core.Fix, units core.Units, showCameras bool) *Alarm {
	if sa := SpeedAlarm(seg.MaxSpeed, fix, h.Settings().SpeedLimitExceed, units); sa != nil {
		h.sink.AnnounceSpeedAlarm(sa.Value, fix.SpeedOrZero())
		return sa
	}
	for _, tag := range seg.Tags {
		t, ok := core.AlarmTypeFromTag(tag)
		if !ok || (t == core.AlarmSpeedCamera && !showCameras) {
			continue
		}
		if h.cooldown.ready(t, h.now()) {
			h.sink.AnnounceAlarm(t, fix.SpeedOrZero())
		}
		return &Alarm{
			Type:       t,
			RouteIndex: -1,
			Location:   fix.LatLon,
			Priority:   t.Priority(),
		}
	}
	return nil
}

// Status summarizes the snapshot for monitoring.
type Status struct {
	RouteSet     bool
	RouteIndex   int
	Remaining    map[string]int
	TrackedState int
}

// Status returns the remaining point count per category.
func (h *Helper) Status() Status {
	snap := h.snap.Load()
	st := Status{
		RouteSet:     snap.usable(),
		Remaining:    make(map[string]int, core.CategoryCount),
		TrackedState: snap.states.Len(),
	}
	if st.RouteSet {
		st.RouteIndex = snap.route.CurrentRouteIndex()
	}
	for _, c := range core.Categories() {
		if c == core.Targets {
			continue
		}
		st.Remaining[c.String()] = len(snap.remaining(c))
	}
	return st
}
