package waypoint

import (
	"context"

	"github.com/routecue/waypointd/pkg/core"
)

// dispatch forwards one pass worth of transitions to the sink, capped per
// category. Alarms only ever get the approach notification, once per type.
func (h *Helper) dispatch(fix core.Fix, res passResult) {
	ctx := context.Background()
	for _, c := range core.Categories() {
		if announce := capped(res.announce[c], AnnounceLimit); len(announce) > 0 && c != core.Alarms {
			h.sink.Announce(c, announce)
			h.metrics.announced(ctx, c, core.StageAnnounce, len(announce))
		}

		approach := capped(res.approach[c], ApproachLimit)
		if len(approach) == 0 {
			continue
		}
		if c == core.Alarms {
			types := alarmTypes(approach)
			for _, t := range types {
				h.sink.AnnounceAlarm(t, fix.SpeedOrZero())
			}
			h.metrics.announced(ctx, c, core.StageAlarm, len(types))
			continue
		}
		h.sink.Approach(fix, c, approach)
		h.metrics.announced(ctx, c, core.StageApproach, len(approach))
	}
}

func capped(points []RoutePoint, limit int) []RoutePoint {
	if len(points) > limit {
		return points[:limit]
	}
	return points
}

// alarmTypes returns the distinct alarm types in first-seen order.
func alarmTypes(points []RoutePoint) []core.AlarmType {
	var seen [core.AlarmTypeCount]bool
	var out []core.AlarmType
	for _, p := range points {
		if p.Point.Alarm == nil {
			continue
		}
		t := p.Point.Alarm.Type
		if t < 0 || t >= core.AlarmTypeCount || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
