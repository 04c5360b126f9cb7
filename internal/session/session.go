package session

import (
	"sync"
	"sync/atomic"
	"time"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/rag"
)

// State is everything a session knows about its loaded video. The zero
// value is the empty session.
type State struct {
	rag.Corpus
	History []model.ChatTurn
}

func (st State) Loaded() bool {
	return st.Transcript != nil && st.Index != nil
}

// View is an immutable picture of a session published after every commit.
// Readers never take the operation lock.
type View struct {
	SessionID        string
	Loaded           bool
	VideoID          string
	TranscriptLength int
	ChunkCount       int
	LoadedAt         time.Time
	History          []model.ChatTurn
	UpdatedAt        time.Time
}

// Session serializes Load, Ask and Clear on one conversation. The
// operation lock is held for the whole operation, network calls included.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	view     atomic.Pointer[View]
	lastUsed atomic.Int64
}

func newSession(id string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now}
	s.lastUsed.Store(now.UnixNano())
	s.publish(now)
	return s
}

// Update runs fn with the operation lock held. fn receives the current
// state and returns the state to commit; when it returns an error nothing
// is committed. The lock is released on every exit path, panics included.
func (s *Session) Update(fn func(cur State) (State, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.touch()

	next, err := fn(s.state)
	if err != nil {
		return err
	}
	s.state = next
	s.publish(time.Now())
	return nil
}

// Read runs fn against the current state with the operation lock held.
// fn must not retain slices from the state.
func (s *Session) Read(fn func(cur State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	fn(s.state)
}

func (s *Session) View() *View {
	return s.view.Load()
}

func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Session) publish(now time.Time) {
	v := &View{
		SessionID:  s.ID,
		Loaded:     s.state.Loaded(),
		ChunkCount: len(s.state.Chunks),
		History:    append([]model.ChatTurn(nil), s.state.History...),
		UpdatedAt:  now,
	}
	if t := s.state.Transcript; t != nil {
		v.VideoID = t.VideoID
		v.TranscriptLength = t.Length()
		v.LoadedAt = t.LoadedAt
	}
	s.view.Store(v)
}
