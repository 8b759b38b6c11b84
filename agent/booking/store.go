package booking

import (
	"errors"
	"sync"
)

// ErrAlreadyTracked guards the invariant that Reserve always creates a fresh
// entry and never mutates an existing one.
var ErrAlreadyTracked = errors.New("reservation id already tracked")

// Store is the in-memory saga state store, owned exclusively by the Engine.
// Each entry carries its own mutex so concurrent Confirm calls on the same
// reservation id serialize without blocking unrelated reservations.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu  sync.Mutex
	res Reservation
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Put registers a fresh reservation. It fails if the id is already tracked.
func (s *Store) Put(res Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[res.ID]; ok {
		return ErrAlreadyTracked
	}
	s.entries[res.ID] = &entry{res: res}
	return nil
}

// Get returns a snapshot of the reservation, if tracked.
func (s *Store) Get(id string) (Reservation, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Reservation{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.res, true
}

// Len returns the number of tracked reservations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// update runs fn while holding the entry lock for id, so at most one state
// transition attempt is in flight per reservation at a time. fn receives the
// current snapshot and returns the reservation to store. Holding the entry
// lock across the backend confirm call is what makes double-confirm a clean
// NOT_PENDING instead of a race.
func (s *Store) update(id string, fn func(Reservation) (Reservation, error)) (Reservation, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Reservation{}, false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.res)
	if err != nil {
		// fn may still have recorded bookkeeping (lastError) on next.
		e.res = next
		return next, true, err
	}
	e.res = next
	return next, true, nil
}
