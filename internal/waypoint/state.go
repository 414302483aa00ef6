package waypoint

import "sync"

// State is the announcement progress of a single point.
type State int

const (
	NotAnnounced State = iota
	AnnouncedOnce
	AnnouncedDone
)

func (s State) String() string {
	switch s {
	case AnnouncedOnce:
		return "announced_once"
	case AnnouncedDone:
		return "announced_done"
	}
	return "not_announced"
}

// StateStore maps point identities to their announcement state. It is safe
// for concurrent readers alongside the evaluation writer, and states only
// ever move forward.
type StateStore struct {
	m sync.Map
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Get returns the state for key, NotAnnounced if never seen.
func (s *StateStore) Get(key string) State {
	v, ok := s.m.Load(key)
	if !ok {
		return NotAnnounced
	}
	return v.(State)
}

// Advance moves key to state to. It reports false when the point is already
// at or beyond that state.
func (s *StateStore) Advance(key string, to State) bool {
	for {
		cur, loaded := s.m.Load(key)
		if !loaded {
			if _, loaded = s.m.LoadOrStore(key, to); !loaded {
				return true
			}
			continue
		}
		if cur.(State) >= to {
			return false
		}
		if s.m.CompareAndSwap(key, cur, to) {
			return true
		}
	}
}

// Len counts tracked points.
func (s *StateStore) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
