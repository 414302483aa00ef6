// Package convert maps between core types and their GORM models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/routecue/waypointd/internal/model"
	"github.com/routecue/waypointd/pkg/core"
	"gorm.io/datatypes"
)

// CoreToSession converts a core.Session to its GORM model.
func CoreToSession(s core.Session) (model.Session, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return model.Session{}, fmt.Errorf("invalid session id %q: %w", s.ID, err)
	}
	out := model.Session{
		ID:         id,
		RouteLabel: s.RouteLabel,
		StartedAt:  s.StartedAt,
	}
	if !s.EndedAt.IsZero() {
		out.EndedAt = sql.NullTime{Time: s.EndedAt, Valid: true}
	}
	return out, nil
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:         s.ID.String(),
		RouteLabel: s.RouteLabel,
		StartedAt:  s.StartedAt,
	}
	if s.EndedAt.Valid {
		out.EndedAt = s.EndedAt.Time
	}
	return out
}

// CoreToNotification converts a core.Notification to its GORM model.
// Notifications outside a session get a nil session id.
func CoreToNotification(n core.Notification) (model.Notification, error) {
	var sessionID uuid.UUID
	if n.SessionID != "" {
		id, err := uuid.Parse(n.SessionID)
		if err != nil {
			return model.Notification{}, fmt.Errorf("invalid session id %q: %w", n.SessionID, err)
		}
		sessionID = id
	}
	points, err := json.Marshal(n.Points)
	if err != nil {
		return model.Notification{}, fmt.Errorf("error marshalling points: %w", err)
	}
	return model.Notification{
		SessionID: sessionID,
		Time:      n.Time,
		Category:  n.Category,
		Stage:     string(n.Stage),
		Text:      n.Text,
		Points:    datatypes.JSON(points),
		Distance:  n.Distance,
		Speed:     n.Speed,
	}, nil
}

// NotificationToCore converts a GORM Notification to a core.Notification.
func NotificationToCore(n model.Notification) core.Notification {
	var points []string
	if len(n.Points) > 0 {
		_ = json.Unmarshal(n.Points, &points)
	}
	out := core.Notification{
		Time:     n.Time,
		Category: n.Category,
		Stage:    core.Stage(n.Stage),
		Text:     n.Text,
		Points:   points,
		Distance: n.Distance,
		Speed:    n.Speed,
	}
	if n.SessionID != uuid.Nil {
		out.SessionID = n.SessionID.String()
	}
	return out
}

// CoreToStatusSample converts a core.StatusSample to its GORM model.
func CoreToStatusSample(s core.StatusSample) (model.StatusSample, error) {
	var sessionID uuid.UUID
	if s.SessionID != "" {
		id, err := uuid.Parse(s.SessionID)
		if err != nil {
			return model.StatusSample{}, fmt.Errorf("invalid session id %q: %w", s.SessionID, err)
		}
		sessionID = id
	}
	remaining, err := json.Marshal(s.Remaining)
	if err != nil {
		return model.StatusSample{}, fmt.Errorf("error marshalling remaining counts: %w", err)
	}
	return model.StatusSample{
		Time:          s.Time,
		SessionID:     sessionID,
		RouteSet:      s.RouteSet,
		RouteIndex:    s.RouteIndex,
		Remaining:     datatypes.JSON(remaining),
		TrackedStates: s.TrackedStates,
		QueueDepth:    s.QueueDepth,
	}, nil
}
