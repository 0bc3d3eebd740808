package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

func TestMemorySaveGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.ErrorIs(t, m.Save(ctx, Session{}), game.ErrInvalidInput)
	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, game.ErrNotFound)

	require.NoError(t, m.Save(ctx, Session{ID: "s1", Word: "crane", Guesses: []string{"slate"}}))
	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "crane", got.Word)

	got.Guesses[0] = "mutated"
	again, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"slate"}, again.Guesses)
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Save(ctx, Session{ID: "s1"}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "s1", func(s *Session) error {
				s.Guesses = append(s.Guesses, "crane")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Guesses, 50)

	boom := errors.New("boom")
	_, err = m.Update(ctx, "s1", func(s *Session) error {
		s.Finished = true
		return boom
	})
	require.ErrorIs(t, err, boom)
	got, _ = m.Get(ctx, "s1")
	assert.False(t, got.Finished)

	_, err = m.Update(ctx, "nope", func(*Session) error { return nil })
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestSessionRemaining(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Duration: 90 * time.Second, StartedAt: start, Penalty: 10 * time.Second}

	assert.Equal(t, 80*time.Second, s.Remaining(start))
	assert.Equal(t, 50*time.Second, s.Remaining(start.Add(30*time.Second)))
	assert.Equal(t, time.Duration(0), s.Remaining(start.Add(5*time.Minute)))

	s.EndedAt = start.Add(20 * time.Second)
	assert.Equal(t, 60*time.Second, s.Remaining(start.Add(5*time.Minute)))
}
