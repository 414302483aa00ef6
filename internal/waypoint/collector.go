package waypoint

import (
	"math"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
)

// Collector matches candidate points from the configured sources onto a route.
type Collector struct {
	Favorites PointSource
	Waypoints PointSource
	Targets   TargetSource
	POI       POISearcher
}

// Collect builds the sorted list for one category. Targets are not collected
// here, see TargetPoints.
func (c *Collector) Collect(r Route, category core.Category, s Settings) []RoutePoint {
	if !usable(r) {
		return nil
	}
	var out []RoutePoint
	switch category {
	case core.Favorites:
		if (s.ShowFavorites || s.AnnounceFavorites) && c.Favorites != nil {
			path := pathOf(r)
			out = matchPoints(out, path, core.Favorites, c.Favorites.Points(), s.deviationRadius(category), s.AnnounceFavorites)
		}
	case core.Waypoints:
		if s.ShowWaypoints || s.AnnounceWaypoints {
			path := pathOf(r)
			radius := s.deviationRadius(category)
			if c.Waypoints != nil {
				out = matchPoints(out, path, core.Waypoints, c.Waypoints.Points(), radius, s.AnnounceWaypoints)
			}
			out = matchPoints(out, path, core.Waypoints, r.LocationPoints(), radius, s.AnnounceWaypoints)
		}
	case core.POI:
		if (s.ShowPOI || s.AnnouncePOI) && c.POI != nil {
			out = c.collectPOI(r, s)
		}
	case core.Alarms:
		out = collectAlarms(r, s)
	}
	sortRoutePoints(out)
	return out
}

func (c *Collector) collectPOI(r Route, s Settings) []RoutePoint {
	path := pathOf(r)
	matches := c.POI.SearchOnPath(r.Locations(), s.POISearchDeviationRadius)
	out := make([]RoutePoint, 0, len(matches))
	for _, m := range matches {
		i := path.IndexOf(m.PathPoint)
		if i < 0 {
			continue
		}
		out = append(out, RoutePoint{
			Category:   core.POI,
			Point:      m.Point,
			Deviation:  m.Deviation,
			RouteIndex: i,
			Announce:   s.AnnouncePOI,
		})
	}
	return out
}

func collectAlarms(r Route, s Settings) []RoutePoint {
	var out []RoutePoint
	n := len(r.Locations())
	for _, p := range r.Alarms() {
		// an index off the route has no distance and would look imminent
		if p.Alarm == nil || p.Alarm.RouteIndex < 0 || p.Alarm.RouteIndex >= n {
			continue
		}
		var show, announce bool
		if p.Alarm.Type == core.AlarmSpeedCamera {
			show, announce = s.ShowCameras, s.AnnounceCameras
		} else {
			show, announce = s.ShowTrafficWarnings, s.AnnounceTrafficWarnings
		}
		if !show && !announce {
			continue
		}
		out = append(out, RoutePoint{
			Category:   core.Alarms,
			Point:      p,
			RouteIndex: p.Alarm.RouteIndex,
			Announce:   announce,
		})
	}
	return out
}

func matchPoints(out []RoutePoint, path *geo.Path, category core.Category, points []core.Point, radius int, announce bool) []RoutePoint {
	for _, p := range points {
		idx, dist := path.Closest(p.Location)
		if idx < 0 || dist > float64(radius) {
			continue
		}
		out = append(out, RoutePoint{
			Category:   category,
			Point:      p,
			Deviation:  dist,
			RouteIndex: idx,
			Announce:   announce,
		})
	}
	return out
}

// TargetPoints lists the remaining targets in route order. Without a route
// the destination sorts last.
func (c *Collector) TargetPoints(r Route) []RoutePoint {
	if c.Targets == nil {
		return nil
	}
	targets := c.Targets.Targets()
	out := make([]RoutePoint, 0, len(targets))
	for i, tp := range targets {
		last := i == len(targets)-1
		var idx int
		switch {
		case !usable(r) && last:
			idx = math.MaxInt
		case !usable(r):
			idx = i
		case last:
			idx = len(r.Locations()) - 1
		default:
			idx = r.IndexOfIntermediate(i)
		}
		out = append(out, RoutePoint{
			Category:   core.Targets,
			Point:      tp,
			RouteIndex: idx,
			Announce:   true,
		})
	}
	sortRoutePoints(out)
	return out
}

func pathOf(r Route) *geo.Path {
	if p, ok := r.(interface{ Path() *geo.Path }); ok {
		return p.Path()
	}
	return geo.NewPath(r.Locations())
}
