// pkg/core/session.go
package core

import "time"

// Session is one navigation run, from daemon start or route set to shutdown.
type Session struct {
	ID         string
	RouteLabel string
	StartedAt  time.Time
	EndedAt    time.Time
}

// Stage names the kind of notification delivered to the user.
type Stage string

const (
	StageApproach   Stage = "approach"
	StageAnnounce   Stage = "announce"
	StageAlarm      Stage = "alarm"
	StageSpeedAlarm Stage = "speed_alarm"
)

// Notification is a rendered announcement as delivered to the user.
type Notification struct {
	SessionID string    `json:"sessionId"`
	Time      time.Time `json:"time"`
	Category  string    `json:"category"`
	Stage     Stage     `json:"stage"`
	Text      string    `json:"text"`
	Points    []string  `json:"points,omitempty"`
	// Distance in meters to the first point, 0 for alarms.
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
}

// StatusSample is a periodic summary of the engine state.
type StatusSample struct {
	SessionID  string    `json:"sessionId"`
	Time       time.Time `json:"time"`
	RouteSet   bool      `json:"routeSet"`
	RouteIndex int       `json:"routeIndex"`
	// Remaining counts the points not yet passed, per category name.
	Remaining     map[string]int `json:"remaining"`
	TrackedStates int            `json:"trackedStates"`
	QueueDepth    int            `json:"queueDepth"`
}
