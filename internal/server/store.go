package server

import (
	"sync"

	"github.com/spigell/hr-screener/internal/workflow"
)

// entry pairs a session with the lock that serializes requests touching it.
type entry struct {
	mu      sync.Mutex
	session *workflow.Session
	// removed is set under mu once the session left the store.
	removed bool
}

// lock takes the entry lock. It reports false, without holding the lock,
// when the session was deleted while the caller waited.
func (e *entry) lock() bool {
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return false
	}
	return true
}

type store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newStore() *store {
	return &store{entries: make(map[string]*entry)}
}

func (s *store) create() *entry {
	e := &entry{session: workflow.NewSession()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.session.ID] = e

	return e
}

func (s *store) get(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *store) remove(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	return e, ok
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
