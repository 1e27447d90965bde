package memory

import (
	"sync"

	"github.com/Mayhomes/quiz/internal/app"
)

// SessionFactory builds a fully wired session for a new session ID.
type SessionFactory func(id string) *app.Session

// SessionRegistry is an in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	factory  SessionFactory
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry(factory SessionFactory) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) GetOrCreate(id string) *app.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := r.factory(id)
	r.sessions[id] = session
	return session
}

func (r *SessionRegistry) Get(id string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		session.Timer().Stop()
		delete(r.sessions, id)
	}
}
