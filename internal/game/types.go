// internal/game/types.go
//
// Core type definitions for the word-guessing engine.
// Defines:
//   - Mark: per-letter result of a scored guess (correct/present/absent).
//   - TileState: what a board cell currently shows.
//   - State: the game lifecycle (loading → playing → won/lost, or error).

package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	// MaxAttempts is the fixed attempt budget of every puzzle.
	MaxAttempts = 6
	// MinLength and MaxLength bound the word length across all modes.
	MinLength = 3
	MaxLength = 7
)

// Mark represents the evaluation result for a single letter in a guess.
// The values double as the wire and storage encoding:
//   - "G": letter is correct and in the correct position.
//   - "Y": letter exists in the target but in a different position.
//   - "A": letter is absent (after accounting for duplicates already matched).
type Mark string

const (
	MarkCorrect Mark = "G"
	MarkPresent Mark = "Y"
	MarkAbsent  Mark = "A"
)

// Valid reports whether m is one of the three known marks.
func (m Mark) Valid() bool {
	return m == MarkCorrect || m == MarkPresent || m == MarkAbsent
}

// AllCorrect returns true if marks is non-empty and every mark is MarkCorrect.
func AllCorrect(marks []Mark) bool {
	return len(marks) > 0 && lo.EveryBy(marks, func(m Mark) bool { return m == MarkCorrect })
}

// EncodeMarks joins marks as "G,Y,A" for storage.
func EncodeMarks(marks []Mark) string {
	return strings.Join(lo.Map(marks, func(m Mark, _ int) string { return string(m) }), ",")
}

// DecodeMarks parses the EncodeMarks form. Empty input yields an empty slice.
func DecodeMarks(s string) ([]Mark, error) {
	if strings.TrimSpace(s) == "" {
		return []Mark{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Mark, len(parts))
	for i, p := range parts {
		m := Mark(strings.ToUpper(strings.TrimSpace(p)))
		if !m.Valid() {
			return nil, fmt.Errorf("%w: unknown mark %q", ErrInvalidInput, p)
		}
		out[i] = m
	}
	return out, nil
}

// TileState is the display state of one board cell.
type TileState int

const (
	TileEmpty TileState = iota
	TileFilled
	TileCorrect
	TilePresent
	TileAbsent
)

func (t TileState) String() string {
	switch t {
	case TileFilled:
		return "filled"
	case TileCorrect:
		return "correct"
	case TilePresent:
		return "present"
	case TileAbsent:
		return "absent"
	default:
		return "empty"
	}
}

// tileFor maps a scored mark to the tile state that renders it.
func tileFor(m Mark) TileState {
	switch m {
	case MarkCorrect:
		return TileCorrect
	case MarkPresent:
		return TilePresent
	default:
		return TileAbsent
	}
}

// State is the coarse lifecycle of a puzzle session.
type State string

const (
	StateLoading State = "LOADING"
	StatePlaying State = "PLAYING"
	StateWon     State = "WON"
	StateLost    State = "LOST"
	StateError   State = "ERROR"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost || s == StateError
}
