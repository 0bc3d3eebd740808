package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

func TestDateKeyRoundTrip(t *testing.T) {
	d := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-01", DateKey(d))

	got, err := ParseDateKey("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", DateKey(got))

	_, err = ParseDateKey("03/01/2025")
	require.ErrorIs(t, err, game.ErrInvalidInput)
}

var day = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestWordIndexDeterministic(t *testing.T) {
	a := WordIndex(day, "salt", 1000)
	b := WordIndex(day.Add(10*time.Hour), "salt", 1000)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 1000)
	assert.Equal(t, 0, WordIndex(day, "salt", 0))
}

func TestAnswerIsFromList(t *testing.T) {
	w, err := Answer(day, "salt", "en")
	require.NoError(t, err)
	assert.Len(t, w, Length)
	assert.Contains(t, words.List("en", Length), w)

	again, err := Answer(day, "salt", "en")
	require.NoError(t, err)
	assert.Equal(t, w, again)

	_, err = Answer(day, "salt", "xx")
	require.Error(t, err)
}
