package worker

import (
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/routecue/waypointd/internal/dispatcher"
	"github.com/routecue/waypointd/internal/export"
	"github.com/routecue/waypointd/internal/route"
	"github.com/routecue/waypointd/internal/util"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
)

// RegisterHandlers registers all navigation commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Route lifecycle - sync (later fixes depend on it)
	d.Register(":ROUTE:SET:", m.handleRouteSet, dispatcher.Logged())
	d.Register(":ROUTE:CLEAR:", m.handleRouteClear, dispatcher.Logged())

	// High-volume location updates - buffered, single consumer keeps order
	d.Register(":LOCATION:", m.handleLocation, dispatcher.Buffered(m.deps.LocationBuffer))

	// Settings
	d.Register(":CATEGORY:ENABLE:", m.handleCategoryEnable, dispatcher.Logged())
	d.Register(":RADIUS:SET:", m.handleRadiusSet, dispatcher.Logged())

	// Alarm queries
	d.Register(":ALARM:QUERY:", m.handleAlarmQuery)
	d.Register(":SEGMENT:", m.handleSegment)

	// Point lists
	d.Register(":POINTS:", m.handlePoints)
	d.Register(":POINT:REMOVE:", m.handlePointRemove, dispatcher.Logged())
	d.Register(":UPCOMING:", m.handleUpcoming)
	d.Register(":FAVORITES:SET:", m.handleFavoritesSet, dispatcher.Logged())
	d.Register(":WAYPOINTS:SET:", m.handleWaypointsSet, dispatcher.Logged())

	d.Register(":EXPORT:KML:", m.handleExportKML, dispatcher.Logged())
}

func (m *Manager) handleRouteSet(e dispatcher.Event) (any, error) {
	parsed, err := m.deps.Parser.ParseRoute(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set route: %w", err)
	}

	if err := m.EndSession(); err != nil {
		m.deps.Logger.Error("Failed to end previous session", "error", err)
	}
	if err := m.startSession(parsed.Label); err != nil {
		m.deps.Logger.Error("Failed to start session", "error", err)
	}

	r := route.New(uuid.NewString(), parsed.Locations, parsed.Options)
	m.deps.Session.SetRoute(r, parsed.IntermediateNames, parsed.Destination)
	if m.deps.POICache != nil {
		m.deps.POICache.Reset()
	}
	m.deps.Helper.SetNewRoute(r)

	return m.deps.Session.ID(), nil
}

func (m *Manager) handleRouteClear(_ dispatcher.Event) (any, error) {
	m.deps.Session.ClearRoute()
	m.deps.Helper.SetNewRoute(nil)
	if err := m.EndSession(); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLocation(e dispatcher.Event) (any, error) {
	fix, err := m.deps.Parser.ParseFix(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to process location: %w", err)
	}
	if fix.Time.IsZero() {
		fix.Time = m.deps.Now()
	}
	if r := m.deps.Session.Route(); r != nil {
		r.UpdateCurrentPosition(fix.LatLon)
	}
	m.deps.Helper.LocationChanged(fix)
	return nil, nil
}

func (m *Manager) handleCategoryEnable(e dispatcher.Event) (any, error) {
	c, on, err := m.deps.Parser.ParseCategoryToggle(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle category: %w", err)
	}
	if !m.deps.Helper.IsCategoryConfigurable(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotConfigurable)
	}
	m.deps.Helper.EnableCategory(c, on)
	return m.deps.Helper.IsCategoryEnabled(c), nil
}

func (m *Manager) handleRadiusSet(e dispatcher.Event) (any, error) {
	c, r, err := m.deps.Parser.ParseRadius(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set radius: %w", err)
	}
	return m.deps.Helper.SetSearchDeviationRadius(c, r), nil
}

func (m *Manager) handleAlarmQuery(e dispatcher.Event) (any, error) {
	showCameras, err := m.deps.Parser.ParseAlarmQuery(e.Args, m.deps.Helper.Settings().ShowCameras)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarm: %w", err)
	}
	// no route yields no alarm rather than an error
	if a := m.deps.Helper.MostImportantAlarm(m.units(), showCameras); a != nil {
		return a, nil
	}
	return nil, nil
}

func (m *Manager) handleSegment(e dispatcher.Event) (any, error) {
	parsed, err := m.deps.Parser.ParseSegment(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to process segment: %w", err)
	}
	if parsed.Fix.Time.IsZero() {
		parsed.Fix.Time = m.deps.Now()
	}
	a := m.deps.Helper.SegmentAlarm(parsed.Segment, parsed.Fix, m.units(), m.deps.Helper.Settings().ShowCameras)
	if a != nil {
		return a, nil
	}
	return nil, nil
}

func (m *Manager) handlePoints(e dispatcher.Event) (any, error) {
	util.CleanArgs(e.Args)
	name := util.Arg(e.Args, 0)
	if name == "" {
		return m.deps.Helper.AllPoints(), nil
	}
	c, err := core.ParseCategory(name)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	return m.deps.Helper.Points(c), nil
}

func (m *Manager) handlePointRemove(e dispatcher.Event) (any, error) {
	keys, err := m.deps.Parser.ParsePointKeys(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to remove points: %w", err)
	}
	var matched []waypoint.RoutePoint
	for _, rp := range m.deps.Helper.AllPoints() {
		if slices.Contains(keys, rp.Point.Key()) {
			matched = append(matched, rp)
		}
	}
	if len(matched) > 0 {
		m.deps.Helper.RemoveVisiblePoints(matched...)
	}
	return len(matched), nil
}

func (m *Manager) handleUpcoming(_ dispatcher.Event) (any, error) {
	rp, ok := m.deps.Helper.MostImportantUpcomingPoint()
	if !ok {
		return nil, nil
	}
	return rp, nil
}

func (m *Manager) handleFavoritesSet(e dispatcher.Event) (any, error) {
	if m.deps.Favorites == nil {
		return nil, fmt.Errorf("favorites are not configured")
	}
	points, err := m.deps.Parser.ParsePoints(e.Args, core.KindFavorite)
	if err != nil {
		return nil, fmt.Errorf("failed to set favorites: %w", err)
	}
	m.deps.Favorites.Set(points)
	m.deps.Helper.RecalculatePoints(core.Favorites)
	return len(points), nil
}

func (m *Manager) handleWaypointsSet(e dispatcher.Event) (any, error) {
	if m.deps.Waypoints == nil {
		return nil, fmt.Errorf("waypoints are not configured")
	}
	points, err := m.deps.Parser.ParsePoints(e.Args, core.KindWaypoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set waypoints: %w", err)
	}
	m.deps.Waypoints.Set(points)
	m.deps.Helper.RecalculatePoints(core.Waypoints)
	return len(points), nil
}

func (m *Manager) handleExportKML(e dispatcher.Event) (any, error) {
	util.CleanArgs(e.Args)
	path := util.Arg(e.Args, 0)
	if path == "" {
		return nil, fmt.Errorf("failed to export kml: missing output path")
	}

	doc := export.Document{Name: "waypoints", Points: m.deps.Helper.AllPoints()}
	if s, ok := m.deps.Session.Current(); ok && s.RouteLabel != "" {
		doc.Name = s.RouteLabel
	}
	if r := m.deps.Session.Route(); r != nil {
		doc.Route = r.Locations()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to export kml: %w", err)
	}
	if err := export.WriteKML(f, doc); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to export kml: %w", err)
	}
	m.deps.Logger.Info("Exported KML", "path", path, "points", len(doc.Points))
	return path, nil
}
