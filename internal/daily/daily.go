// internal/daily/daily.go
//
// Deterministic daily answer selection.
//
// The answer for a date is picked by HMAC-SHA256(salt, YYYY-MM-DD) over the
// word list, so every server instance with the same salt agrees without
// storing anything.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

// Length is the word length of the daily puzzle.
const Length = 5

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDateKey parses YYYY-MM-DD; anything else is ErrInvalidInput.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", game.ErrInvalidInput, s)
	}
	return t, nil
}

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// Answer returns the daily word for date in lang.
func Answer(date time.Time, salt, lang string) (string, error) {
	list := words.List(lang, Length)
	if len(list) == 0 {
		return "", fmt.Errorf("%w: no %d-letter words for %q", game.ErrNotFound, Length, lang)
	}
	return list[WordIndex(date, salt, len(list))], nil
}
