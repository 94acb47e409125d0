package triage

import (
	"log"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Sessions keeps one Session per key and forgets sessions idle for longer
// than the TTL. All sessions share the engine, and through it the resolver;
// only conversation state is per session.
type Sessions struct {
	engine *Engine
	cache  *gocache.Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewSessions creates a store whose entries expire after ttl without use.
func NewSessions(engine *Engine, ttl time.Duration, logger *log.Logger) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Sessions{
		engine: engine,
		cache:  gocache.New(ttl, ttl/2),
		ttl:    ttl,
		logger: logger,
	}
	s.cache.OnEvicted(func(key string, _ interface{}) {
		s.logf("session %s closed", key)
	})
	return s
}

// Create starts a session under a fresh random id.
func (s *Sessions) Create() *Session {
	id := uuid.NewString()
	sess := NewSession(id, s.engine)
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	s.logf("session %s started", id)
	return sess
}

// Get returns the session for id and extends its lifetime.
func (s *Sessions) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return sess, true
}

// GetOrCreate returns the session for id, starting it when unknown.
func (s *Sessions) GetOrCreate(id string) *Session {
	if id == "" {
		return s.Create()
	}
	if sess, ok := s.Get(id); ok {
		return sess
	}
	sess := NewSession(id, s.engine)
	if err := s.cache.Add(id, sess, gocache.DefaultExpiration); err != nil {
		// lost a race with another caller; use theirs
		if existing, ok := s.Get(id); ok {
			return existing
		}
		s.cache.Set(id, sess, gocache.DefaultExpiration)
	}
	s.logf("session %s started", id)
	return sess
}

// Delete drops the session for id.
func (s *Sessions) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of live sessions, including expired ones not yet
// swept.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

func (s *Sessions) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
