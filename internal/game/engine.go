// internal/game/engine.go
//
// Guess scoring shared by every mode.
// Responsibilities:
//   - Normalize raw guesses (trim, lowercase).
//   - Score a guess against a target with the two-pass algorithm.
//
// The same Score is used for online submissions, offline fallback, AI filtering
// and friend races so every mode judges identically.
package game

import (
	"fmt"
	"slices"
	"strings"
)

// Normalize trims and lowercases a word.
func Normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Score implements the standard two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Correct.
//   - Count the remaining (non-correct) target letters.
//
// Pass 2:
//   - For each non-correct guess letter: if the letter is still available in the
//     remaining counts, mark Present and consume one; otherwise mark Absent.
//
// Comparison is case-insensitive. Mismatched lengths fail with ErrInvalidInput.
func Score(guess, target string) ([]Mark, error) {
	g := []rune(Normalize(guess))
	t := []rune(Normalize(target))
	if len(g) != len(t) {
		return nil, fmt.Errorf("%w: guess has %d letters, target has %d", ErrInvalidInput, len(g), len(t))
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("%w: empty word", ErrInvalidInput)
	}

	res := make([]Mark, len(g))
	remaining := make(map[rune]int, len(t))

	// First pass: exact matches, count leftovers.
	for i := range g {
		if g[i] == t[i] {
			res[i] = MarkCorrect
		} else {
			remaining[t[i]]++
		}
	}

	// Second pass: presents/absents for the rest.
	for i := range g {
		if res[i] == MarkCorrect {
			continue
		}
		if remaining[g[i]] > 0 {
			res[i] = MarkPresent
			remaining[g[i]]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res, nil
}

// MustScore is Score for callers that have already checked lengths.
// It panics on mismatched input.
func MustScore(guess, target string) []Mark {
	m, err := Score(guess, target)
	if err != nil {
		panic(err)
	}
	return m
}

// EqualMarks reports whether two mark sequences are identical.
func EqualMarks(a, b []Mark) bool {
	return slices.Equal(a, b)
}
