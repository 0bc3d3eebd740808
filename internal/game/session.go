// internal/game/session.go
//
// Session is the in-memory game for one puzzle screen: a Board, a Machine and
// an ordered list of observers.
//
// Responsibilities:
//   - Gate keyboard input on PLAYING.
//   - Apply a scored row atomically (letters, tiles, state, cursor).
//   - Replay stored rows on resume.
//   - Deliver every change to observers in the order it happened.
//
// Notes:
//   - Events are queued under the lock and drained by a single flusher, so an
//     observer may call back into the Session without deadlocking.
//   - After Close every mutating call is rejected with ErrState; results that
//     arrive for a torn-down screen are dropped.
package game

import (
	"fmt"
	"sort"
	"sync"
	"unicode"
)

// EventKind names what changed.
type EventKind string

const (
	EventLetter EventKind = "letter" // current row letters changed
	EventRow    EventKind = "row"    // a row received feedback
	EventState  EventKind = "state"  // lifecycle state changed
	EventReset  EventKind = "reset"  // board rebuilt
)

// Event is one change delivered to observers.
type Event struct {
	Kind  EventKind
	State State
	Row   int
	Text  string
	Marks []Mark
}

// Observer receives events in order.
type Observer func(Event)

// Row is a stored, scored guess used for replay.
type Row struct {
	Index int
	Guess string
	Marks []Mark
}

// Outcome is the result of applying one scored guess.
type Outcome struct {
	Row   int
	Guess string
	Marks []Mark
	State State
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	State   State
	Message string
	Row     int
	Offset  int
	Length  int
	Cells   [][]Cell
}

type subscriber struct {
	id int
	fn Observer
}

type Session struct {
	mu       sync.Mutex
	board    *Board
	machine  *Machine
	live     bool
	subs     []subscriber
	nextID   int
	pending  []Event
	flushing bool
	history  []Row
}

// NewSession returns a LOADING session with an empty board.
func NewSession(length int) (*Session, error) {
	b, err := NewBoard(length)
	if err != nil {
		return nil, err
	}
	return &Session{board: b, machine: NewMachine(), live: true}, nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// emit queues an event; caller holds mu.
func (s *Session) emit(ev Event) {
	s.pending = append(s.pending, ev)
}

// flush delivers queued events outside the lock. Only one goroutine drains at
// a time; events queued meanwhile are picked up by the active drainer.
func (s *Session) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	for len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		subs := append([]subscriber(nil), s.subs...)
		s.mu.Unlock()
		for _, sub := range subs {
			sub.fn(ev)
		}
		s.mu.Lock()
	}
	s.flushing = false
	s.mu.Unlock()
}

func (s *Session) stateEvent() Event {
	return Event{Kind: EventState, State: s.machine.State(), Row: s.board.Row()}
}

func (s *Session) checkLive() error {
	if !s.live {
		return fmt.Errorf("%w: session closed", ErrState)
	}
	return nil
}

// Begin moves LOADING → PLAYING on a fresh board.
func (s *Session) Begin() error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return err
	}
	if err := s.machine.Start(); err != nil {
		return err
	}
	s.emit(s.stateEvent())
	return nil
}

// Fail moves LOADING → ERROR with a user-facing message.
func (s *Session) Fail(message string) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return err
	}
	if err := s.machine.Fail(message); err != nil {
		return err
	}
	s.emit(s.stateEvent())
	return nil
}

// Resize rebuilds the board for a new word length. Only valid while LOADING.
func (s *Session) Resize(length int) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return err
	}
	if s.machine.State() != StateLoading {
		return fmt.Errorf("%w: resize while %s", ErrState, s.machine.State())
	}
	if err := s.board.Reset(length); err != nil {
		return err
	}
	s.emit(Event{Kind: EventReset, State: s.machine.State()})
	return nil
}

// Replay writes stored rows into the board and leaves LOADING.
// terminal restores WON (won) or LOST; otherwise play resumes at the row after
// the highest stored index.
func (s *Session) Replay(rows []Row, terminal, won bool) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return err
	}
	if s.machine.State() != StateLoading {
		return fmt.Errorf("%w: replay while %s", ErrState, s.machine.State())
	}

	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	for _, r := range sorted {
		if err := s.validateRow(r.Index, r.Guess, r.Marks); err != nil {
			return err
		}
	}

	next := 0
	for _, r := range sorted {
		_ = s.board.WriteRow(r.Index, r.Guess)
		_ = s.board.CommitFeedback(r.Index, r.Marks)
		if r.Index+1 > next {
			next = r.Index + 1
		}
		s.emit(Event{Kind: EventRow, State: s.machine.State(), Row: r.Index, Text: Normalize(r.Guess), Marks: r.Marks})
	}
	s.history = sorted
	if !terminal && next >= s.board.Attempts() {
		terminal = true
	}
	_ = s.board.MoveTo(min(next, s.board.Attempts()))

	var err error
	if terminal {
		err = s.machine.Restore(won)
	} else {
		err = s.machine.Start()
	}
	if err != nil {
		return err
	}
	s.emit(s.stateEvent())
	return nil
}

func (s *Session) validateRow(row int, guess string, marks []Mark) error {
	if row < 0 || row >= s.board.Attempts() {
		return fmt.Errorf("%w: row %d outside 0..%d", ErrInvalidInput, row, s.board.Attempts()-1)
	}
	if n := len([]rune(Normalize(guess))); n != s.board.Length() {
		return fmt.Errorf("%w: %q has %d letters, board expects %d", ErrInvalidInput, guess, n, s.board.Length())
	}
	if len(marks) != s.board.Length() {
		return fmt.Errorf("%w: %d marks for a %d-letter row", ErrInvalidInput, len(marks), s.board.Length())
	}
	for _, m := range marks {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown mark %q", ErrInvalidInput, m)
		}
	}
	return nil
}

func (s *Session) typed() string {
	var out []rune
	for i := 0; i < s.board.Offset(); i++ {
		out = append(out, s.board.Cell(s.board.Row(), i).Letter)
	}
	return string(out)
}

// Input types a letter into the current row. No-op unless PLAYING.
func (s *Session) Input(r rune) bool {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || s.machine.State() != StatePlaying || !s.board.Input(r) {
		return false
	}
	s.emit(Event{Kind: EventLetter, State: StatePlaying, Row: s.board.Row(), Text: s.typed()})
	return true
}

// Backspace removes the last typed letter. No-op unless PLAYING.
func (s *Session) Backspace() bool {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || s.machine.State() != StatePlaying || !s.board.Backspace() {
		return false
	}
	s.emit(Event{Kind: EventLetter, State: StatePlaying, Row: s.board.Row(), Text: s.typed()})
	return true
}

// Type replaces the current row with word in one step.
// The word must fill the row; on error the row is left as it was.
func (s *Session) Type(word string) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return err
	}
	if s.machine.State() != StatePlaying {
		return fmt.Errorf("%w: typing while %s", ErrState, s.machine.State())
	}
	letters := []rune(Normalize(word))
	if len(letters) != s.board.Length() {
		return fmt.Errorf("%w: need %d letters", ErrNotEnoughLetters, s.board.Length())
	}
	for _, r := range letters {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("%w: %q is not a letter", ErrInvalidInput, r)
		}
	}
	for s.board.Backspace() {
	}
	for _, r := range letters {
		s.board.Input(r)
	}
	s.emit(Event{Kind: EventLetter, State: StatePlaying, Row: s.board.Row(), Text: s.typed()})
	return nil
}

// PendingGuess returns the typed current row and its index.
// ErrNotEnoughLetters when the row is not full, ErrState when not PLAYING.
func (s *Session) PendingGuess() (guess string, row int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return "", 0, err
	}
	if s.machine.State() != StatePlaying {
		return "", 0, fmt.Errorf("%w: no guess while %s", ErrState, s.machine.State())
	}
	text, ok := s.board.CurrentRowText()
	if !ok {
		return "", s.board.Row(), ErrNotEnoughLetters
	}
	return text, s.board.Row(), nil
}

// Apply records a scored guess for row atomically: either every part of the
// row (letters, tiles, state, cursor) changes or nothing does.
// row must be the current row, which keeps guesses in strict order.
func (s *Session) Apply(row int, guess string, marks []Mark) (Outcome, error) {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLive(); err != nil {
		return Outcome{}, err
	}
	if s.machine.State() != StatePlaying {
		return Outcome{State: s.machine.State()}, fmt.Errorf("%w: guess applied while %s", ErrState, s.machine.State())
	}
	if row != s.board.Row() {
		return Outcome{State: StatePlaying}, fmt.Errorf("%w: row %d submitted while row %d is current", ErrState, row, s.board.Row())
	}
	if err := s.validateRow(row, guess, marks); err != nil {
		return Outcome{State: StatePlaying}, err
	}

	_ = s.board.WriteRow(row, guess)
	_ = s.board.CommitFeedback(row, marks)
	state, _ := s.machine.Evaluate(row, marks)
	_ = s.board.MoveTo(row + 1)

	out := Outcome{Row: row, Guess: Normalize(guess), Marks: append([]Mark(nil), marks...), State: state}
	s.history = append(s.history, Row{Index: row, Guess: out.Guess, Marks: out.Marks})
	s.emit(Event{Kind: EventRow, State: state, Row: row, Text: out.Guess, Marks: out.Marks})
	if state != StatePlaying {
		s.emit(s.stateEvent())
	}
	return out, nil
}

// Expire ends a PLAYING session as LOST (timed modes). Reports whether it did.
func (s *Session) Expire() bool {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || s.machine.Expire() != nil {
		return false
	}
	s.emit(s.stateEvent())
	return true
}

// Close marks the session torn down. Later mutations are rejected.
func (s *Session) Close() {
	s.mu.Lock()
	s.live = false
	s.mu.Unlock()
}

// Live reports whether Close has not been called.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Row is the index of the row that the next guess will occupy.
func (s *Session) Row() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Row()
}

// Rows returns the scored rows in board order, replayed ones included.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.history))
	for i, r := range s.history {
		out[i] = Row{Index: r.Index, Guess: Normalize(r.Guess), Marks: append([]Mark(nil), r.Marks...)}
	}
	return out
}

func (s *Session) Length() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Length()
}

// Snapshot copies the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:   s.machine.State(),
		Message: s.machine.Message(),
		Row:     s.board.Row(),
		Offset:  s.board.Offset(),
		Length:  s.board.Length(),
		Cells:   s.board.Rows(),
	}
}
