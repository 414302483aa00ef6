package waypoint

import (
	"math"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
)

// passResult holds the transitions of one evaluation pass, in route order.
type passResult struct {
	approach [core.CategoryCount][]RoutePoint
	announce [core.CategoryCount][]RoutePoint
}

func (r *passResult) empty() bool {
	for i := range r.approach {
		if len(r.approach[i]) > 0 || len(r.announce[i]) > 0 {
			return false
		}
	}
	return true
}

// EffectiveDistance is the straight-line distance from the agent to the
// point less the point's deviation from the route, clamped at zero.
func EffectiveDistance(at core.LatLon, p RoutePoint) float64 {
	return math.Max(0, geo.Distance(at, p.Point.Location)-p.Deviation)
}

// evaluate advances every cursor to the route's current index and moves the
// upcoming points through their announcement states.
func (s *snapshot) evaluate(fix core.Fix, cmp DistanceComparator) passResult {
	var res passResult
	current := s.route.CurrentRouteIndex()
	speed := fix.SpeedOrZero()

	for _, c := range core.Categories() {
		list := s.lists[c]
		for k := s.cursors[c].Advance(list, current); k < len(list); k++ {
			rp := list[k]
			if s.route.DistanceToPoint(rp.RouteIndex) > 2*LongAnnounceRadius {
				break
			}
			if !rp.Announce {
				continue
			}
			d := EffectiveDistance(fix.LatLon, rp)
			key := rp.Point.Key()
			state := s.states.Get(key)

			switch {
			case c == core.Alarms:
				if state == NotAnnounced && cmp.IsDistanceLess(speed, d, AlarmsAnnounceRadius) &&
					s.states.Advance(key, AnnouncedOnce) {
					res.approach[c] = append(res.approach[c], rp)
				}
			case state == AnnouncedOnce:
				if cmp.IsDistanceLess(speed, d, ShortAnnounceRadius) && s.states.Advance(key, AnnouncedDone) {
					res.announce[c] = append(res.announce[c], rp)
				}
			case state == NotAnnounced:
				if cmp.IsDistanceLess(speed, d, LongAnnounceRadius) && s.states.Advance(key, AnnouncedOnce) {
					res.approach[c] = append(res.approach[c], rp)
				}
			}
		}
	}
	return res
}
