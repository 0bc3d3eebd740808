package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

func TestPuzzleCache(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Puzzle(ctx, "2025-03-01", "en")
	require.ErrorIs(t, err, game.ErrNotFound)

	require.NoError(t, s.SavePuzzle(ctx, Puzzle{Date: "2025-03-01", Lang: "en", Length: 5, HasDefinition: true, Answer: "Erase"}))
	p, err := s.Puzzle(ctx, "2025-03-01", "en")
	require.NoError(t, err)
	assert.Equal(t, "daily", p.Mode)
	assert.Equal(t, 5, p.Length)
	assert.Equal(t, "erase", p.Answer)
	assert.True(t, p.HasDefinition)
	assert.False(t, p.Played)

	// A later save without an answer keeps the known one.
	require.NoError(t, s.SavePuzzle(ctx, Puzzle{Date: "2025-03-01", Lang: "en", Length: 5}))
	p, err = s.Puzzle(ctx, "2025-03-01", "en")
	require.NoError(t, err)
	assert.Equal(t, "erase", p.Answer)

	require.NoError(t, s.SetAnswer(ctx, "2025-03-01", "en", "CRANE", true))
	p, err = s.Puzzle(ctx, "2025-03-01", "en")
	require.NoError(t, err)
	assert.Equal(t, "crane", p.Answer)
	assert.True(t, p.Played)

	require.NoError(t, s.SavePuzzle(ctx, Puzzle{Date: "2025-03-01", Lang: "en", Length: 5}))
	p, _ = s.Puzzle(ctx, "2025-03-01", "en")
	assert.True(t, p.Played, "played is sticky")

	// Missing row is a logged no-op.
	require.NoError(t, s.SetAnswer(ctx, "1999-01-01", "en", "crane", false))

	require.ErrorIs(t, s.SavePuzzle(ctx, Puzzle{Lang: "en"}), game.ErrInvalidInput)
}

func TestPrunePuzzles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, d := range []string{"2025-02-20", "2025-02-22", "2025-03-01"} {
		require.NoError(t, s.SavePuzzle(ctx, Puzzle{Date: d, Lang: "en", Length: 5}))
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	n, err := s.PrunePuzzles(ctx, now.Add(-PuzzleRetention))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Puzzle(ctx, "2025-02-20", "en")
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = s.Puzzle(ctx, "2025-02-22", "en")
	assert.NoError(t, err)
}
