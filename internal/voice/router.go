// Package voice renders announcement batches into user facing notifications
// and fans them out to recorders.
package voice

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
)

// DefaultSpeed is the reference speed in m/s announcement radii are tuned for.
const DefaultSpeed = 12.0

// Recorder receives every notification the router emits.
type Recorder interface {
	RecordNotification(n *core.Notification) error
}

// Config holds the router settings.
type Config struct {
	DefaultSpeed float64
	Units        core.Units
	// Session returns the id notifications are tagged with.
	Session func() string
	Logger  *slog.Logger
	Now     func() time.Time
}

// Router implements waypoint.Sink.
type Router struct {
	defaultSpeed float64
	units        atomic.Int32
	session      func() string
	log          *slog.Logger
	now          func() time.Time

	mu        sync.RWMutex
	recorders []Recorder
}

var _ waypoint.Sink = (*Router)(nil)

// NewRouter creates a router with no recorders.
func NewRouter(cfg Config) *Router {
	r := &Router{
		defaultSpeed: cfg.DefaultSpeed,
		session:      cfg.Session,
		log:          cfg.Logger,
		now:          cfg.Now,
	}
	if r.defaultSpeed <= 0 {
		r.defaultSpeed = DefaultSpeed
	}
	if r.session == nil {
		r.session = func() string { return "" }
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.units.Store(int32(cfg.Units))
	return r
}

// AddRecorder registers a recorder.
func (r *Router) AddRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorders = append(r.recorders, rec)
}

// SetUnits changes the units used for new notifications.
func (r *Router) SetUnits(u core.Units) {
	r.units.Store(int32(u))
}

// Units returns the units in effect.
func (r *Router) Units() core.Units {
	return core.Units(r.units.Load())
}

// IsDistanceLess reports whether dist is below etalon, or would be reached
// sooner at speed than etalon at the default speed. A non-positive speed
// counts as the default speed.
func (r *Router) IsDistanceLess(speed, dist, etalon float64) bool {
	if speed <= 0 {
		speed = r.defaultSpeed
	}
	return dist < etalon || dist/speed < etalon/r.defaultSpeed
}

// Approach announces points coming up.
func (r *Router) Approach(fix core.Fix, category core.Category, points []waypoint.RoutePoint) {
	if len(points) == 0 {
		return
	}
	d := waypoint.EffectiveDistance(fix.LatLon, points[0])
	r.emit(&core.Notification{
		Category: category.String(),
		Stage:    core.StageApproach,
		Text:     fmt.Sprintf("In %s, %s", FormatDistance(d, r.Units()), pointList(points)),
		Points:   pointKeys(points),
		Distance: d,
		Speed:    fix.SpeedOrZero(),
	})
}

// Announce announces points that are reached now.
func (r *Router) Announce(category core.Category, points []waypoint.RoutePoint) {
	if len(points) == 0 {
		return
	}
	r.emit(&core.Notification{
		Category: category.String(),
		Stage:    core.StageAnnounce,
		Text:     "Now, " + pointList(points),
		Points:   pointKeys(points),
	})
}

// AnnounceAlarm warns about a hazard ahead.
func (r *Router) AnnounceAlarm(alarm core.AlarmType, speed float64) {
	r.emit(&core.Notification{
		Category: core.Alarms.String(),
		Stage:    core.StageAlarm,
		Text:     "Attention, " + AlarmText(alarm),
		Points:   []string{alarm.String()},
		Speed:    speed,
	})
}

// AnnounceSpeedAlarm warns that the limit is exceeded.
func (r *Router) AnnounceSpeedAlarm(limit int, speed float64) {
	r.emit(&core.Notification{
		Category: core.Alarms.String(),
		Stage:    core.StageSpeedAlarm,
		Text:     fmt.Sprintf("You are exceeding the speed limit of %d %s", limit, SpeedUnit(r.Units())),
		Speed:    speed,
	})
}

func (r *Router) emit(n *core.Notification) {
	n.SessionID = r.session()
	n.Time = r.now().UTC()

	r.mu.RLock()
	recorders := r.recorders
	r.mu.RUnlock()

	r.log.Debug("Notification", "stage", n.Stage, "category", n.Category, "text", n.Text)
	for _, rec := range recorders {
		if err := rec.RecordNotification(n); err != nil {
			r.log.Warn("Failed to record notification", "stage", n.Stage, "error", err)
		}
	}
}
