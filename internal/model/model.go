package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Notification{},
	&StatusSample{},
}

// Session is one navigation run
type Session struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	RouteLabel string       `json:"routeLabel" gorm:"size:255"`
	StartedAt  time.Time    `json:"startedAt" gorm:"index:idx_session_started_at"`
	EndedAt    sql.NullTime `json:"endedAt"`
}

func (*Session) TableName() string {
	return "sessions"
}

// BeforeCreate assigns a fresh id when none is set.
func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Notification is a delivered announcement
type Notification struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID      `json:"sessionId" gorm:"type:uuid;index:idx_notification_session_id"`
	Time      time.Time      `json:"time" gorm:"index:idx_notification_time"`
	Category  string         `json:"category" gorm:"size:31"`
	Stage     string         `json:"stage" gorm:"size:31;index:idx_notification_stage"`
	Text      string         `json:"text" gorm:"size:511"`
	Points    datatypes.JSON `json:"points"`
	Distance  float64        `json:"distance"`
	Speed     float64        `json:"speed"`
}

func (*Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns a fresh id when none is set.
func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// StatusSample is a periodic snapshot of the engine state
type StatusSample struct {
	Time          time.Time      `json:"time" gorm:"index:idx_status_time"`
	SessionID     uuid.UUID      `json:"sessionId" gorm:"type:uuid;index:idx_status_session_id"`
	RouteSet      bool           `json:"routeSet"`
	RouteIndex    int            `json:"routeIndex"`
	Remaining     datatypes.JSON `json:"remaining"`
	TrackedStates int            `json:"trackedStates"`
	QueueDepth    int            `json:"queueDepth"`
}

func (*StatusSample) TableName() string {
	return "status_samples"
}
