package game

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers wrap with fmt.Errorf("...: %w")
// and branch with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNetwork      = errors.New("network error")
	ErrPersistence  = errors.New("persistence error")
	ErrConflict     = errors.New("conflict")
	ErrState        = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")

	// ErrNotEnoughLetters is returned when the current row is not fully filled.
	ErrNotEnoughLetters = fmt.Errorf("%w: not enough letters", ErrInvalidInput)
)
