package poi

import (
	"sync"

	"github.com/routecue/waypointd/pkg/core"
)

// Store is a replaceable set of user points such as favorites or GPX
// waypoints.
type Store struct {
	mu     sync.RWMutex
	points []core.Point
}

// NewStore returns a store holding points.
func NewStore(points ...core.Point) *Store {
	return &Store{points: points}
}

// Points returns a copy of the stored points.
func (s *Store) Points() []core.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Point(nil), s.points...)
}

// Set replaces all points.
func (s *Store) Set(points []core.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = points
}

// Len counts the stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
