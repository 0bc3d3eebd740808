package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/netcheck"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

var k = progress.Key{UserID: "u1", Date: "2025-03-01", Lang: "en"}

func appendRows(t *testing.T, s *progress.Store, key progress.Key, target string, guesses ...string) {
	t.Helper()
	for i, g := range guesses {
		marks := game.MustScore(g, target)
		require.NoError(t, s.Append(context.Background(), key, progress.Entry{
			Row: i, Guess: g, Marks: marks, Won: game.AllCorrect(marks),
		}))
	}
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("completed locally never calls remote", func(t *testing.T) {
		store := newTestStore(t)
		appendRows(t, store, k, "erase", "crane", "erase")
		w := newFakeWords()
		e := newEngine(t, store, w, netcheck.Fixed(true), true)

		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginCompleted, st.Origin)
		assert.True(t, st.Terminal)
		assert.True(t, st.Won)
		assert.Len(t, st.Rows, 2)
		assert.Zero(t, w.count("myresult"))
		assert.Zero(t, w.count("validate"))
	})

	t.Run("completed by exhaustion is lost", func(t *testing.T) {
		store := newTestStore(t)
		appendRows(t, store, k, "erase", "crane", "pilot", "sound", "tiger", "money", "heart")
		e := newEngine(t, store, newFakeWords(), netcheck.Fixed(true), true)

		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginCompleted, st.Origin)
		assert.True(t, st.Terminal)
		assert.False(t, st.Won)
	})

	t.Run("resume", func(t *testing.T) {
		store := newTestStore(t)
		appendRows(t, store, k, "erase", "crane", "pilot")
		w := newFakeWords()
		e := newEngine(t, store, w, netcheck.Fixed(true), true)

		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginResumed, st.Origin)
		assert.False(t, st.Terminal)
		assert.Equal(t, 2, st.NextRow)
		assert.Zero(t, w.count("myresult"))
	})

	t.Run("remote result imported", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SavePuzzle(ctx, progress.Puzzle{Date: k.Date, Lang: k.Lang, Length: 5}))
		w := newFakeWords()
		w.my[k.Date] = remote.MyResult{
			Guesses:      []string{"crane", "erase"},
			FeedbackRows: [][]game.Mark{game.MustScore("crane", "erase")},
			Won:          true,
			Answer:       "ERASE",
		}
		e := newEngine(t, store, w, netcheck.Fixed(true), true)

		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginRemote, st.Origin)
		assert.True(t, st.Terminal)
		assert.True(t, st.Won)
		assert.Equal(t, "erase", st.Answer)
		require.Len(t, st.Rows, 2)
		assert.True(t, game.AllCorrect(st.Rows[1].Marks), "missing feedback is scored against the answer")

		// Imported rows are already synced and short-circuit the next load.
		recs, err := store.UnsyncedEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, recs)
		p, err := store.Puzzle(ctx, k.Date, k.Lang)
		require.NoError(t, err)
		assert.True(t, p.Played)

		again, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginCompleted, again.Origin)
		assert.Equal(t, 1, w.count("myresult"))
	})

	t.Run("played flag prefers finished remote result over partial rows", func(t *testing.T) {
		tests := []struct {
			name   string
			online bool
			remote bool
			origin Origin
			calls  int
		}{
			{"remote finished", true, true, OriginRemote, 1},
			{"remote missing", true, false, OriginResumed, 1},
			{"offline", false, true, OriginResumed, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := newTestStore(t)
				appendRows(t, store, k, "erase", "crane")
				require.NoError(t, store.SavePuzzle(ctx, progress.Puzzle{Date: k.Date, Lang: k.Lang, Length: 5}))
				require.NoError(t, store.SetAnswer(ctx, k.Date, k.Lang, "erase", true))
				w := newFakeWords()
				if tt.remote {
					w.my[k.Date] = remote.MyResult{Guesses: []string{"crane", "erase"}, Won: true, Answer: "erase"}
				}
				e := newEngine(t, store, w, netcheck.Fixed(tt.online), true)

				st, err := e.Resolve(ctx, k)
				require.NoError(t, err)
				assert.Equal(t, tt.origin, st.Origin)
				assert.Equal(t, tt.remote && tt.online, st.Terminal)
				assert.Equal(t, tt.calls, w.count("myresult"))
			})
		}
	})

	t.Run("remote not consulted when anonymous", func(t *testing.T) {
		w := newFakeWords()
		e := newEngine(t, newTestStore(t), w, netcheck.Fixed(true), false)
		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginFresh, st.Origin)
		assert.Zero(t, w.count("myresult"))
	})

	t.Run("remote not consulted offline", func(t *testing.T) {
		w := newFakeWords()
		e := newEngine(t, newTestStore(t), w, netcheck.Fixed(false), true)
		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginFresh, st.Origin)
		assert.Zero(t, w.count("myresult"))
	})

	t.Run("remote errors fall through to fresh", func(t *testing.T) {
		w := newFakeWords()
		w.myErr = errors.New("timeout")
		e := newEngine(t, newTestStore(t), w, netcheck.Fixed(true), true)
		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginFresh, st.Origin)
	})

	t.Run("remote result without answer or feedback is ignored", func(t *testing.T) {
		w := newFakeWords()
		w.my[k.Date] = remote.MyResult{Guesses: []string{"crane"}}
		e := newEngine(t, newTestStore(t), w, netcheck.Fixed(true), true)
		st, err := e.Resolve(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, OriginFresh, st.Origin)
	})
}
