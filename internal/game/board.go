// internal/game/board.go
//
// Board is the grid of MaxAttempts × length cells plus a cursor.
// The cursor is an absolute cell index; the current row spans
// [row*length, row*length+length). Board has no notion of game state:
// Session gates input on PLAYING.
package game

import (
	"fmt"
	"strings"
	"unicode"
)

// Cell is one tile on the board.
type Cell struct {
	Letter rune
	State  TileState
}

// Board holds the letters and tile states of every row.
type Board struct {
	length   int
	attempts int
	cells    []Cell
	row      int
	cursor   int
}

// NewBoard returns an empty board for words of the given length.
func NewBoard(length int) (*Board, error) {
	b := &Board{attempts: MaxAttempts}
	if err := b.Reset(length); err != nil {
		return nil, err
	}
	return b, nil
}

// Reset clears every cell and moves the cursor to row 0, offset 0.
// A different length rebuilds the grid; no state carries over.
func (b *Board) Reset(length int) error {
	if length < MinLength || length > MaxLength {
		return fmt.Errorf("%w: word length %d outside %d..%d", ErrInvalidInput, length, MinLength, MaxLength)
	}
	b.length = length
	b.cells = make([]Cell, b.attempts*length)
	b.row = 0
	b.cursor = 0
	return nil
}

func (b *Board) rowStart() int { return b.row * b.length }
func (b *Board) rowEnd() int   { return b.rowStart() + b.length }

// Input writes a letter at the cursor and advances it.
// Returns false (no-op) when the row is full, the board is exhausted or r is not a letter.
func (b *Board) Input(r rune) bool {
	if b.row >= b.attempts || b.cursor >= b.rowEnd() || !unicode.IsLetter(r) {
		return false
	}
	b.cells[b.cursor] = Cell{Letter: unicode.ToLower(r), State: TileFilled}
	b.cursor++
	return true
}

// Backspace retreats the cursor and clears the cell.
// No-op at the start of the current row.
func (b *Board) Backspace() bool {
	if b.row >= b.attempts || b.cursor <= b.rowStart() {
		return false
	}
	b.cursor--
	b.cells[b.cursor] = Cell{}
	return true
}

// CurrentRowText returns the letters of the current row when it is full.
// ok is false when the row is not ready yet.
func (b *Board) CurrentRowText() (text string, ok bool) {
	if b.row >= b.attempts || b.cursor < b.rowEnd() {
		return "", false
	}
	return b.rowText(b.row), true
}

func (b *Board) rowText(row int) string {
	var sb strings.Builder
	for _, c := range b.cells[row*b.length : (row+1)*b.length] {
		sb.WriteRune(c.Letter)
	}
	return sb.String()
}

// WriteRow overwrites a row's letters as Filled tiles.
// Used when the guess did not come from keyboard input (replay, AI, races).
func (b *Board) WriteRow(row int, word string) error {
	if err := b.checkRow(row); err != nil {
		return err
	}
	letters := []rune(Normalize(word))
	if len(letters) != b.length {
		return fmt.Errorf("%w: %q has %d letters, board expects %d", ErrInvalidInput, word, len(letters), b.length)
	}
	start := row * b.length
	for i, r := range letters {
		b.cells[start+i] = Cell{Letter: r, State: TileFilled}
	}
	if row == b.row {
		b.cursor = b.rowEnd()
	}
	return nil
}

// CommitFeedback sets the scored tile states of a row.
func (b *Board) CommitFeedback(row int, marks []Mark) error {
	if err := b.checkRow(row); err != nil {
		return err
	}
	if len(marks) != b.length {
		return fmt.Errorf("%w: %d marks for a %d-letter row", ErrInvalidInput, len(marks), b.length)
	}
	start := row * b.length
	for i, m := range marks {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown mark %q", ErrInvalidInput, m)
		}
		b.cells[start+i].State = tileFor(m)
	}
	return nil
}

// MoveTo places the cursor at the start of row. row may equal the attempt
// budget, which leaves the board exhausted.
func (b *Board) MoveTo(row int) error {
	if row < 0 || row > b.attempts {
		return fmt.Errorf("%w: row %d outside 0..%d", ErrInvalidInput, row, b.attempts)
	}
	b.row = row
	b.cursor = row * b.length
	return nil
}

func (b *Board) checkRow(row int) error {
	if row < 0 || row >= b.attempts {
		return fmt.Errorf("%w: row %d outside 0..%d", ErrInvalidInput, row, b.attempts-1)
	}
	return nil
}

func (b *Board) Length() int   { return b.length }
func (b *Board) Attempts() int { return b.attempts }
func (b *Board) Row() int      { return b.row }

// Offset is the cursor position within the current row.
func (b *Board) Offset() int { return b.cursor - b.rowStart() }

// Cell returns the cell at (row, col).
func (b *Board) Cell(row, col int) Cell {
	return b.cells[row*b.length+col]
}

// Rows returns a copy of the grid, one slice per row.
func (b *Board) Rows() [][]Cell {
	out := make([][]Cell, b.attempts)
	for r := range out {
		out[r] = append([]Cell(nil), b.cells[r*b.length:(r+1)*b.length]...)
	}
	return out
}
