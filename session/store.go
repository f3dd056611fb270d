package session

import (
	"sync"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id.
const CookieName = "seedgraph_session"

// Factory creates the view of a new session.
type Factory func() *View

// Store keeps one view per session id.
type Store struct {
	mu      sync.Mutex
	views   map[string]*View
	factory Factory
}

func NewStore(factory Factory) *Store {
	return &Store{
		views:   make(map[string]*View),
		factory: factory,
	}
}

func (s *Store) Get(id string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	return v, ok
}

// Create starts a new session and returns its id.
func (s *Store) Create() (string, *View) {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.factory()
	s.views[id] = v
	return id, v
}

// Ensure returns the view of id, creating a new session if id is unknown.
// The returned id is the one to hand back to the client.
func (s *Store) Ensure(id string) (string, *View) {
	if v, ok := s.Get(id); ok {
		return id, v
	}
	return s.Create()
}

// Reset drops every session and uses factory from now on, typically after
// the graph was reloaded.
func (s *Store) Reset(factory Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = make(map[string]*View)
	s.factory = factory
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}
