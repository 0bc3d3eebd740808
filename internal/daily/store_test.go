package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

var (
	G = game.MarkCorrect
	Y = game.MarkPresent
	A = game.MarkAbsent
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "server.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveResultLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first := Result{
		UserID: "u1", Date: "2025-03-01", Lang: "en",
		Guesses:  []string{"crane"},
		Feedback: [][]game.Mark{{A, A, A, A, G}},
		Answer:   "slate",
	}
	require.NoError(t, s.SaveResult(ctx, first))

	second := first
	second.Guesses = []string{"crane", "slate"}
	second.Feedback = [][]game.Mark{{A, A, G, A, G}, {G, G, G, G, G}}
	second.Won = true
	require.NoError(t, s.SaveResult(ctx, second))

	got, err := s.Result(ctx, "u1", "2025-03-01", "en")
	require.NoError(t, err)
	assert.Equal(t, second.Guesses, got.Guesses)
	assert.Equal(t, second.Feedback, got.Feedback)
	assert.True(t, got.Won)
	assert.Equal(t, "slate", got.Answer)
}

func TestResultNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Result(context.Background(), "u1", "2025-03-01", "en")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestCreateUserConflictIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateUser(ctx, User{ID: "u1", Username: "Alice", PasswordHash: "h"}))
	err := s.CreateUser(ctx, User{ID: "u2", Username: "alice", PasswordHash: "h"})
	require.ErrorIs(t, err, game.ErrConflict)

	u, err := s.UserByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)

	_, err = s.UserByID(ctx, "nope")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestSpeedleLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []SpeedleRun{
		{SessionID: "a", UserID: "u1", Score: 300, GuessesUsed: 3},
		{SessionID: "b", UserID: "u2", Score: 500, GuessesUsed: 2},
		{SessionID: "c", UserID: "u3", Score: 300, GuessesUsed: 2},
		{SessionID: "d", UserID: "u4", Score: 900, GuessesUsed: 1, Duration: 60},
	}
	wantPos := []int{1, 1, 2, 1}
	for i, r := range runs {
		r.Date = "2025-03-01"
		if r.Duration == 0 {
			r.Duration = 90
		}
		r.Won = true
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		pos, err := s.SaveSpeedle(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, wantPos[i], pos, "run %s", r.SessionID)
	}

	board, err := s.Leaderboard(ctx, "2025-03-01", 90, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(board))
	for _, r := range board {
		ids = append(ids, r.SessionID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	board, err = s.Leaderboard(ctx, "2025-03-01", 90, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)

	_, err = s.SaveSpeedle(ctx, SpeedleRun{SessionID: "a", UserID: "u1", Date: "2025-03-01", Duration: 90})
	require.ErrorIs(t, err, game.ErrConflict)
}
