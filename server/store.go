package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zephyrtronium/uncertainty"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Store holds sessions by ID. Each session is guarded by its own lock so that
// requests for different sessions do not contend.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	create   func(id uuid.UUID) *uncertainty.Session
}

type entry struct {
	mu sync.Mutex
	s  *uncertainty.Session
}

// NewStore creates an empty store. create makes the session for a new ID.
func NewStore(create func(id uuid.UUID) *uncertainty.Session) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*entry),
		create:   create,
	}
}

// Create adds a new session and returns its ID.
func (st *Store) Create() uuid.UUID {
	id := uuid.New()
	e := &entry{s: st.create(id)}
	st.mu.Lock()
	st.sessions[id] = e
	st.mu.Unlock()
	return id
}

// With calls f with exclusive access to the session with the given ID.
func (st *Store) With(id uuid.UUID, f func(s *uncertainty.Session) error) error {
	st.mu.Lock()
	e := st.sessions[id]
	st.mu.Unlock()
	if e == nil {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return f(e.s)
}

// Delete removes a session.
func (st *Store) Delete(id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
