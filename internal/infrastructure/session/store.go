// Package session keeps per-user tutoring sessions in process memory with a
// sliding expiry.
package session

import (
	"sync"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Get returns the live session for userID. Expired sessions are evicted on
// access rather than by a background sweeper.
func (s *Store) Get(userID string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LastSeenAt) > s.ttl {
		delete(s.sessions, userID)
		return nil, false
	}
	return cloneSession(sess), true
}

func (s *Store) Create(userID, persona string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &domain.Session{
		UserID:     userID,
		Persona:    persona,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	s.sessions[userID] = sess
	return cloneSession(sess)
}

func (s *Store) Update(session *domain.Session) {
	if session == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := cloneSession(session)
	updated.LastSeenAt = s.now()
	s.sessions[session.UserID] = updated
}

func cloneSession(in *domain.Session) *domain.Session {
	out := *in
	if in.KnowledgeLevel != nil {
		out.KnowledgeLevel = make(domain.KnowledgeLevel, len(in.KnowledgeLevel))
		for k, v := range in.KnowledgeLevel {
			out.KnowledgeLevel[k] = v
		}
	}
	return &out
}
