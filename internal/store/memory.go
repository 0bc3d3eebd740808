// internal/store/memory.go
//
// In-memory store for live Speedle sessions on the reference backend.
//
// Characteristics:
//   - Sessions are keyed by ID in a map guarded by an RWMutex.
//   - Get returns a copy; mutation goes through Update so the check and the
//     write happen under one lock.
//   - State is lost when the process restarts. Finished runs are persisted
//     separately by the daily store.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// Session is one timed run in progress (or just finished).
type Session struct {
	ID        string
	UserID    string
	Username  string
	Lang      string
	Word      string
	Duration  time.Duration
	StartedAt time.Time
	Penalty   time.Duration
	Guesses   []string
	Won       bool
	Finished  bool
	EndedAt   time.Time

	// Score and Position are set once the run is finished.
	Score    int
	Position int
}

// Remaining is the time left at now, never negative. A finished session's
// clock stops at EndedAt.
func (s Session) Remaining(now time.Time) time.Duration {
	if !s.EndedAt.IsZero() {
		now = s.EndedAt
	}
	return max(0, s.Duration-now.Sub(s.StartedAt)-s.Penalty)
}

func (s Session) clone() Session {
	s.Guesses = slices.Clone(s.Guesses)
	return s
}

// Sessions persists Speedle sessions.
type Sessions interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Update applies fn to the stored session atomically. If fn returns an
	// error nothing is written.
	Update(ctx context.Context, id string, fn func(*Session) error) (Session, error)
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() Sessions {
	return &memory{sessions: make(map[string]Session)}
}

func (m *memory) Save(_ context.Context, s Session) error {
	if s.ID == "" {
		return fmt.Errorf("save session: %w: empty id", game.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.clone()
	return nil
}

func (m *memory) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s.clone(), nil
	}
	return Session{}, fmt.Errorf("session %q: %w", id, game.ErrNotFound)
}

func (m *memory) Update(_ context.Context, id string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q: %w", id, game.ErrNotFound)
	}
	s = s.clone()
	if err := fn(&s); err != nil {
		return Session{}, err
	}
	m.sessions[id] = s
	return s.clone(), nil
}
