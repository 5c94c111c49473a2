package runtime

import (
	"fmt"
	"sync"
)

// ErrNotFound reports a dead or never-created entity id.
type ErrNotFound struct {
	ID EntityID
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("entity %d does not exist or is no longer alive", int(e.ID))
}

// EntityStore is the flat arena. Ids index into it and are never reused, so
// dangling references surface as explicit lookups on dead slots rather than
// use-after-free.
type EntityStore struct {
	mu       sync.RWMutex
	entities []*Entity
}

func NewEntityStore() *EntityStore {
	return &EntityStore{}
}

// Create allocates a live entity with neutral defaults and returns it.
func (s *EntityStore) Create(name string, kind EntityKind) *Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Entity{
		ID:          EntityID(len(s.entities)),
		Name:        name,
		Kind:        kind,
		Mood:        MoodNeutral,
		Trust:       100,
		Traits:      make(map[Trait]bool),
		PinkySource: -1,
		Alive:       true,
	}
	s.entities = append(s.entities, e)
	return e
}

// Get returns a live entity or ErrNotFound. Dead slots stay addressable so
// the error can say which entity is gone.
func (s *EntityStore) Get(id EntityID) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.entities) {
		return nil, ErrNotFound{ID: id}
	}
	e := s.entities[id]
	if !e.Alive {
		return nil, ErrNotFound{ID: id}
	}
	return e, nil
}

// Peek returns the entity even when dead, for afterlife and audit paths.
func (s *EntityStore) Peek(id EntityID) *Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.entities) {
		return nil
	}
	return s.entities[id]
}

// Kill marks the slot dead. Edge detachment and afterlife archival are the
// caller's job; the store only owns liveness.
func (s *EntityStore) Kill(id EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) >= 0 && int(id) < len(s.entities) {
		s.entities[id].Alive = false
	}
}

// Live returns every living entity, id order.
func (s *EntityStore) Live() []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entity
	for _, e := range s.entities {
		if e.Alive {
			out = append(out, e)
		}
	}
	return out
}

// Len reports how many slots were ever allocated.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}
