// internal/reconcile/engine.go
//
// ReconciliationEngine: decides where a puzzle starts and pushes offline
// progress to the remote service.
//
// Responsibilities:
//   - LoadPuzzle: cached puzzle first, then the remote service, then fail.
//   - Resolve: local completed → local progress → remote result → fresh.
//   - Summary: best-effort definition and synonym for the end screen.
//   - Sync: upload every key with unsynced rows; partial failure is reported
//     as counts, never as an error.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/netcheck"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// User-facing messages for LOADING → ERROR.
const (
	MsgLoadFailed   = "Couldn't load today's word."
	MsgOfflineNoPuz = "Offline & no cached puzzle available."
)

// Auth reports whether the remote calls run as a signed-in player.
type Auth interface {
	Authenticated() bool
}

type noAuth struct{}

func (noAuth) Authenticated() bool { return false }

type Engine struct {
	store  *progress.Store
	words  remote.Words
	net    netcheck.Checker
	auth   Auth
	logger zerolog.Logger
	now    func() time.Time

	syncConcurrency int
}

type Option func(*Engine)

func WithAuth(a Auth) Option                { return func(e *Engine) { e.auth = a } }
func WithLogger(l zerolog.Logger) Option    { return func(e *Engine) { e.logger = l } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithSyncConcurrency(n int) Option      { return func(e *Engine) { e.syncConcurrency = n } }

func New(store *progress.Store, words remote.Words, net netcheck.Checker, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		words:           words,
		net:             net,
		auth:            noAuth{},
		logger:          log.Logger,
		now:             time.Now,
		syncConcurrency: 4,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Today is the puzzle date key (UTC, YYYY-MM-DD).
func (e *Engine) Today() string {
	return e.now().UTC().Format("2006-01-02")
}

// LoadPuzzle returns today's puzzle for lang.
//
//   - A cached row for (today, lang) wins without a network call.
//   - Otherwise, when online, the remote metadata is fetched and cached.
//   - Offline with nothing cached → game.ErrUnavailable.
//   - Remote failure with nothing cached → game.ErrNetwork.
func (e *Engine) LoadPuzzle(ctx context.Context, lang string) (progress.Puzzle, error) {
	today := e.Today()
	p, err := e.store.Puzzle(ctx, today, lang)
	if err == nil && p.Length >= game.MinLength && p.Length <= game.MaxLength {
		return p, nil
	}
	if err != nil && !errors.Is(err, game.ErrNotFound) {
		e.logger.Warn().Err(err).Str("date", today).Str("lang", lang).Msg("read cached puzzle")
	}

	if !e.net.Online() {
		return progress.Puzzle{}, fmt.Errorf("load puzzle %s/%s: %w", today, lang, game.ErrUnavailable)
	}
	t, err := e.words.Today(ctx, lang)
	if err != nil {
		return progress.Puzzle{}, fmt.Errorf("load puzzle %s/%s: %w: %w", today, lang, game.ErrNetwork, err)
	}
	if t.Length < game.MinLength || t.Length > game.MaxLength {
		return progress.Puzzle{}, fmt.Errorf("load puzzle %s/%s: %w: length %d", today, lang, game.ErrNetwork, t.Length)
	}

	p = progress.Puzzle{
		Date:          t.Date,
		Lang:          lang,
		Mode:          t.Mode,
		Length:        t.Length,
		HasDefinition: t.HasDefinition,
		HasSynonym:    t.HasSynonym,
		Answer:        game.Normalize(t.Answer),
	}
	if p.Date == "" {
		p.Date = today
	}
	if p.Mode == "" {
		p.Mode = "daily"
	}
	if err := e.store.SavePuzzle(ctx, p); err != nil {
		e.logger.Warn().Err(err).Str("date", p.Date).Str("lang", lang).Msg("cache puzzle")
	}
	if _, err := e.store.PrunePuzzles(ctx, e.now().Add(-progress.PuzzleRetention)); err != nil {
		e.logger.Warn().Err(err).Msg("prune cached puzzles")
	}
	return p, nil
}

// FailureMessage maps a LoadPuzzle error to the text shown in the ERROR state.
func FailureMessage(err error) string {
	if errors.Is(err, game.ErrUnavailable) {
		return MsgOfflineNoPuz
	}
	return MsgLoadFailed
}
