package progress

import (
	"context"
	"path/filepath"
	"sync"
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

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	s, err := Open(filepath.Join(t.TempDir(), "progress.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var key = Key{UserID: "u1", Date: "2025-03-01", Lang: "en"}

func TestAppendUpsertsSameRow(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "crane", Marks: []game.Mark{A, A, A, A, G}}))
	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "SPEED", Marks: []game.Mark{Y, A, Y, Y, A}}))

	got, err := s.LoadAll(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "speed", got[0].Guess)
	assert.Equal(t, []game.Mark{Y, A, Y, Y, A}, got[0].Marks)
	assert.False(t, got[0].Synced)
}

func TestAppendValidates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.ErrorIs(t, s.Append(ctx, Key{UserID: "u1"}, Entry{Row: 0}), game.ErrInvalidInput)
	require.ErrorIs(t, s.Append(ctx, key, Entry{Row: game.MaxAttempts}), game.ErrInvalidInput)
}

func TestLoadAllOrdersByRow(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, row := range []int{2, 0, 1} {
		require.NoError(t, s.Append(ctx, key, Entry{Row: row, Guess: "crane", Marks: []game.Mark{A, A, A, A, A}}))
	}
	got, err := s.LoadAll(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.Row)
	}

	other, err := s.LoadAll(ctx, Key{UserID: "u2", Date: key.Date, Lang: key.Lang})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCompletionQueries(t *testing.T) {
	ctx := context.Background()
	absent := []game.Mark{A, A, A, A, A}

	tests := []struct {
		name      string
		entries   []Entry
		completed bool
		progress  bool
	}{
		{"empty", nil, false, false},
		{"in progress", []Entry{{Row: 0, Guess: "crane", Marks: absent}}, false, true},
		{"won", []Entry{{Row: 0, Guess: "crane", Marks: absent}, {Row: 1, Guess: "erase", Marks: []game.Mark{G, G, G, G, G}, Won: true}}, true, true},
		{"last row used", []Entry{{Row: game.MaxAttempts - 1, Guess: "crane", Marks: absent}}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			for _, e := range tt.entries {
				require.NoError(t, s.Append(ctx, key, e))
			}
			done, err := s.HasCompleted(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tt.completed, done)

			started, err := s.HasAnyProgress(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tt.progress, started)
		})
	}
}

func TestUnsyncedAndMarkSynced(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	other := Key{UserID: "u2", Date: "2025-03-02", Lang: "en"}
	marks := []game.Mark{A, A, A, A, A}

	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "crane", Marks: marks}))
	require.NoError(t, s.Append(ctx, key, Entry{Row: 1, Guess: "pilot", Marks: marks}))
	require.NoError(t, s.Append(ctx, other, Entry{Row: 0, Guess: "sound", Marks: marks}))

	recs, err := s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, key, recs[0].Key)
	assert.Equal(t, other, recs[2].Key)

	// A row written after the upload snapshot stays unsynced.
	require.NoError(t, s.Append(ctx, key, Entry{Row: 2, Guess: "sugar", Marks: marks}))
	n, err := s.MarkSynced(ctx, key, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	recs, err = s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].Row)
	assert.Equal(t, other, recs[1].Key)

	// Marking again is a no-op.
	n, err = s.MarkSynced(ctx, key, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Rewriting a synced row makes it unsynced again.
	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "crane", Marks: marks}))
	recs, err = s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestAppendSyncedImport(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "erase", Marks: []game.Mark{G, G, G, G, G}, Won: true, Synced: true}))
	recs, err := s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestConcurrentAppendsAcrossKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	var wg sync.WaitGroup
	for u := 0; u < 4; u++ {
		k := Key{UserID: string(rune('a' + u)), Date: key.Date, Lang: key.Lang}
		for row := 0; row < game.MaxAttempts; row++ {
			wg.Add(1)
			go func(k Key, row int) {
				defer wg.Done()
				assert.NoError(t, s.Append(ctx, k, Entry{Row: row, Guess: "crane", Marks: []game.Mark{A, A, A, A, A}}))
			}(k, row)
		}
	}
	wg.Wait()

	recs, err := s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 4*game.MaxAttempts)
}

func TestEntryHelpers(t *testing.T) {
	entries := []Entry{
		{Row: 0, Guess: "crane", Marks: []game.Mark{A, A, A, A, A}},
		{Row: 1, Guess: "erase", Marks: []game.Mark{G, G, G, G, G}, Won: true},
	}
	assert.True(t, Won(entries))
	assert.False(t, Won(entries[:1]))
	rows := Rows(entries)
	assert.Equal(t, game.Row{Index: 1, Guess: "erase", Marks: entries[1].Marks}, rows[1])
}

func TestClockIsUsedForTimestamps(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(t, WithClock(func() time.Time { return fixed }))
	require.NoError(t, s.Append(ctx, key, Entry{Row: 0, Guess: "crane", Marks: []game.Mark{A, A, A, A, A}}))
	got, err := s.LoadAll(ctx, key)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got[0].At))
}
