package keylock

import (
	"sync"

	"github.com/google/uuid"
)

// Registry hands out one mutex per entity ID so that operations on the
// same entity serialize while operations on different entities run in
// parallel. Entries are reference-counted and removed once the last
// holder releases, so the map does not grow with the ID space.
type Registry struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty lock registry.
func New() *Registry {
	return &Registry{locks: make(map[uuid.UUID]*entry)}
}

// Lock blocks until the mutex for id is held and returns the release
// function. Callers locking more than one registry must acquire in a
// fixed order to avoid deadlock.
func (r *Registry) Lock(id uuid.UUID) func() {
	r.mu.Lock()
	e, ok := r.locks[id]
	if !ok {
		e = &entry{}
		r.locks[id] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			r.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(r.locks, id)
			}
			r.mu.Unlock()
		})
	}
}

// Len returns the number of live lock entries. Intended for tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
