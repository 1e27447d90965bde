package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mayhomes/quiz/internal/app"
)

// SessionFactory builds a fully wired session for a new session ID.
type SessionFactory func(id string) *app.Session

// SessionRegistry is a Redis-aware implementation of app.SessionRegistry.
// Sessions themselves stay in-process (the tick loop lives here); Redis
// marks session liveness so operators can see open sessions across restarts.
// The session records are persisted separately through the Redis Store.
type SessionRegistry struct {
	client   *redis.Client
	factory  SessionFactory
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry(client *redis.Client, factory SessionFactory, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client:   client,
		factory:  factory,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(id), "1", r.ttl).Err()
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
	session, ok := r.sessions[id]
	if !ok {
		return
	}
	session.Timer().Stop()
	delete(r.sessions, id)
	_ = r.client.Del(context.Background(), r.key(id)).Err()
}

func (r *SessionRegistry) key(id string) string {
	return "quiz:session:" + id
}
