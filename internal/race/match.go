package race

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// Progress is the opponent's latest known move.
type Progress struct {
	UserID string
	Guess  string
	Marks  []game.Mark
	Row    int
	Won    bool
}

// Match is one player's side of a friend race. Guesses are scored locally
// against the room word; the event stream only carries progress to the
// other player.
type Match struct {
	store   *Store
	code    string
	me      Player
	word    string
	session *game.Session
	logger  zerolog.Logger

	submitting atomic.Bool
	onOpponent func(Progress)

	mu       sync.Mutex
	opponent Progress
	seen     bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type MatchOption func(*Match)

// WithOpponentUpdates is called on the observer goroutine for every opponent event.
func WithOpponentUpdates(fn func(Progress)) MatchOption {
	return func(m *Match) { m.onOpponent = fn }
}

// NewMatch prepares a PLAYING session for room code. An empty code is
// ErrMissingRoomCode and the race screen must close.
func NewMatch(store *Store, code string, me Player, word string, opts ...MatchOption) (*Match, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	word = game.Normalize(word)
	s, err := game.NewSession(len([]rune(word)))
	if err != nil {
		return nil, err
	}
	if err := s.Begin(); err != nil {
		return nil, err
	}
	m := &Match{
		store:   store,
		code:    code,
		me:      me,
		word:    word,
		session: s,
		logger:  store.logger.With().Str("room", code).Str("user", me.UID).Logger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *Match) Session() *game.Session { return m.session }
func (m *Match) Code() string           { return m.code }

// Start follows the opponent's events until ctx is done or Stop.
func (m *Match) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.store.Observe(ctx, m.code, m.onEvent); err != nil {
			m.logger.Warn().Err(err).Msg("observe race")
		}
	}()
}

func (m *Match) onEvent(ev GuessEvent) {
	if ev.UserID == m.me.UID {
		return
	}
	p := Progress{UserID: ev.UserID, Guess: ev.Guess, Marks: ev.Feedback, Row: ev.Row, Won: game.AllCorrect(ev.Feedback)}
	m.mu.Lock()
	m.opponent = p
	m.seen = true
	m.mu.Unlock()
	if m.onOpponent != nil {
		m.onOpponent(p)
	}
}

// Opponent returns the latest opponent move, false before the first one.
func (m *Match) Opponent() (Progress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opponent, m.seen
}

// Submit scores the typed row against the room word, applies it and posts
// the move. Posting is best-effort: a failure is logged and play goes on.
func (m *Match) Submit(ctx context.Context) (game.Outcome, error) {
	if !m.submitting.CompareAndSwap(false, true) {
		return game.Outcome{}, fmt.Errorf("%w: submission already in flight", game.ErrState)
	}
	defer m.submitting.Store(false)

	guess, row, err := m.session.PendingGuess()
	if err != nil {
		return game.Outcome{}, err
	}
	marks, err := game.Score(guess, m.word)
	if err != nil {
		return game.Outcome{}, err
	}
	out, err := m.session.Apply(row, guess, marks)
	if err != nil {
		return out, err
	}
	if _, err := m.store.PostGuess(ctx, m.code, GuessEvent{UserID: m.me.UID, Guess: guess, Feedback: marks, Row: row}); err != nil {
		m.logger.Warn().Err(err).Int("row", row).Msg("move not sent")
	}
	return out, nil
}

// SubmitWord replaces the current row with word and submits it.
func (m *Match) SubmitWord(ctx context.Context, word string) (game.Outcome, error) {
	if err := m.session.Type(word); err != nil {
		return game.Outcome{}, err
	}
	return m.Submit(ctx)
}

// Stop ends the observer and closes the session.
func (m *Match) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.session.Close()
}
