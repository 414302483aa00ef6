package waypoint

import (
	"math"
	"sync"
	"time"

	"github.com/routecue/waypointd/pkg/core"
)

// AlarmCooldown is the minimum gap between two announcements of the same
// alarm type raised from a road segment.
const AlarmCooldown = 50 * time.Second

// Alarm is the resolved most urgent alarm.
type Alarm struct {
	Type core.AlarmType `json:"type"`
	// Value is the displayed limit for speed alarms, in km/h or mph.
	Value int `json:"value,omitempty"`
	// RouteIndex is -1 for alarms not tied to a route vertex.
	RouteIndex int         `json:"routeIndex"`
	Location   core.LatLon `json:"location"`
	// Distance along the route in meters, 0 when not route based.
	Distance int `json:"distance"`
	// Priority is the score the alarm won with; lower is more urgent.
	Priority int `json:"priority"`
}

// AlarmPriority scores a point hazard from its time to arrival in seconds
// and distance in meters. Imminent hazards score their type's base priority,
// near ones are pushed back by one band and the rest by two.
func AlarmPriority(t core.AlarmType, timeToArrival, distance float64) int {
	base := t.Priority()
	switch {
	case timeToArrival < 6 || distance < 75:
		return base
	case t == core.AlarmSpeedCamera && (timeToArrival < 15 || distance < 150):
		return base
	case timeToArrival < 7 || distance < 100:
		return base + core.AlarmTypeCount
	}
	return base + 2*core.AlarmTypeCount
}

// SpeedAlarm synthesizes a speed-limit alarm when the fix is faster than
// maxSpeed by more than exceedKmh. maxSpeed is in m/s; the alarm value is
// the limit rendered in the given units.
func SpeedAlarm(maxSpeed float64, fix core.Fix, exceedKmh float64, units core.Units) *Alarm {
	if maxSpeed <= 0 || math.IsInf(maxSpeed, 0) || !fix.HasSpeed {
		return nil
	}
	if fix.Speed <= maxSpeed+exceedKmh/3.6 {
		return nil
	}
	value := maxSpeed * 3.6
	if units == core.Imperial {
		value /= 1.6
	}
	return &Alarm{
		Type:       core.AlarmSpeedLimit,
		Value:      int(math.Round(value)),
		RouteIndex: -1,
		Location:   fix.LatLon,
	}
}

// mostImportantAlarm resolves the single most urgent alarm on the snapshot.
// A speed violation always wins; otherwise the lowest scoring hazard within
// the long announce radius is returned, first in route order on ties.
func (s *snapshot) mostImportantAlarm(fix core.Fix, hasFix bool, settings Settings, units core.Units, showCameras bool) *Alarm {
	var best *Alarm
	bestScore := math.MaxInt
	if hasFix {
		if sa := SpeedAlarm(s.route.CurrentMaxSpeed(), fix, settings.SpeedLimitExceed, units); sa != nil {
			best, bestScore = sa, 0
		}
	}

	speed := fix.SpeedOrZero()
	current := s.route.CurrentRouteIndex()
	for _, rp := range s.remaining(core.Alarms) {
		if rp.RouteIndex < current {
			continue
		}
		d := s.route.DistanceToPoint(rp.RouteIndex)
		if d > LongAnnounceRadius {
			break
		}
		info := rp.Point.Alarm
		if info == nil || (info.Type == core.AlarmSpeedCamera && !showCameras) {
			continue
		}
		tta := math.Inf(1)
		if speed > 0 {
			tta = float64(d) / speed
		}
		if score := AlarmPriority(info.Type, tta, float64(d)); score < bestScore {
			best = &Alarm{
				Type:       info.Type,
				Value:      info.Value,
				RouteIndex: rp.RouteIndex,
				Location:   rp.Point.Location,
				Distance:   d,
				Priority:   score,
			}
			bestScore = score
		}
	}
	return best
}

// cooldown remembers when each alarm type was last announced.
type cooldown struct {
	mu   sync.Mutex
	last map[core.AlarmType]time.Time
}

// ready reports whether t may be announced at now and records it if so.
func (c *cooldown) ready(t core.AlarmType, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		c.last = make(map[core.AlarmType]time.Time)
	}
	if last, ok := c.last[t]; ok && now.Sub(last) <= AlarmCooldown {
		return false
	}
	c.last[t] = now
	return true
}
