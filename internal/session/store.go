package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/metrics"
)

const DefaultIdleTTL = 2 * time.Hour

// Store maps opaque session ids to sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
}

func NewStore(idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
	}
}

// Create starts an empty session under a fresh id.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), time.Now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// Ensure returns the session for id, or a new session when id is unknown
// or empty. created reports whether a new session was made.
func (s *Store) Ensure(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle since before now-idleTTL and releases their
// keyword indexes. A session with an operation in flight is never evicted.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.LastUsed().Before(cutoff) {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		if err := sess.state.Keywords.Close(); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("close keyword index failed")
		}
		sess.state = State{}
		sess.publish(now)
		delete(s.sessions, id)
		sess.mu.Unlock()
		evicted++
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return evicted
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				log.Info().Int("evicted", n).Int("remaining", s.Len()).Msg("idle sessions evicted")
			}
		}
	}
}
