package game

import "fmt"

// Machine tracks LOADING → PLAYING → {WON, LOST}, plus LOADING → ERROR.
// No transition leaves a terminal state. Machine is not safe for concurrent
// use; Session serializes access.
type Machine struct {
	state   State
	message string
}

// NewMachine returns a machine in LOADING.
func NewMachine() *Machine {
	return &Machine{state: StateLoading}
}

func (m *Machine) State() State { return m.state }

// Message is the user-facing reason recorded by Fail.
func (m *Machine) Message() string { return m.message }

func (m *Machine) transition(from, to State) error {
	if m.state != from {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrState, m.state, to)
	}
	m.state = to
	return nil
}

// Start moves LOADING → PLAYING once puzzle metadata is known.
func (m *Machine) Start() error { return m.transition(StateLoading, StatePlaying) }

// Fail moves LOADING → ERROR when metadata is unobtainable.
func (m *Machine) Fail(message string) error {
	if err := m.transition(StateLoading, StateError); err != nil {
		return err
	}
	m.message = message
	return nil
}

// Restore moves LOADING straight to WON or LOST for an already completed puzzle.
func (m *Machine) Restore(won bool) error {
	if won {
		return m.transition(StateLoading, StateWon)
	}
	return m.transition(StateLoading, StateLost)
}

// Evaluate applies the feedback of the guess at row and returns the new state.
func (m *Machine) Evaluate(row int, marks []Mark) (State, error) {
	if m.state != StatePlaying {
		return m.state, fmt.Errorf("%w: guess evaluated while %s", ErrState, m.state)
	}
	switch {
	case AllCorrect(marks):
		m.state = StateWon
	case row >= MaxAttempts-1:
		m.state = StateLost
	}
	return m.state, nil
}

// Expire moves PLAYING → LOST when a timed session runs out.
func (m *Machine) Expire() error { return m.transition(StatePlaying, StateLost) }
