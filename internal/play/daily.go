// internal/play/daily.go
//
// Daily is the controller behind one daily-puzzle screen.
//
// Responsibilities:
//   - Load: puzzle metadata (cache/remote), start-state resolution, board replay.
//   - Submit: score the typed row online, or offline against the cached answer,
//     apply it to the Session, persist it immediately.
//   - On WON/LOST: exactly one of remote submission or pending-sync, and exactly
//     one stats update per (user, date, lang).
//
// A submission that resolves after Close is discarded by the Session.
package play

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/netcheck"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/reconcile"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// Deps are the collaborators shared by every daily screen.
type Deps struct {
	Store  *progress.Store
	Words  remote.Words
	Net    netcheck.Checker
	Engine *reconcile.Engine
	// Logger defaults to the global logger when nil.
	Logger *zerolog.Logger
}

func (d Deps) logger() zerolog.Logger {
	if d.Logger != nil {
		return *d.Logger
	}
	return log.Logger
}

// Result describes one submitted guess.
type Result struct {
	game.Outcome
	// Offline is true when the row was scored locally.
	Offline bool
	// Synced is true when the finished game was submitted right away;
	// false on a terminal row means it waits for the next sync pass.
	Synced bool
	// Answer is known once the game is over (or earlier when cached).
	Answer string
	// Summary is filled on WON/LOST.
	Summary *reconcile.Summary
}

type Daily struct {
	deps   Deps
	logger zerolog.Logger
	key    progress.Key

	session    *game.Session
	puzzle     progress.Puzzle
	submitting atomic.Bool
}

// NewDaily prepares a screen for userID in lang. Call Load next.
func NewDaily(deps Deps, userID, lang string) (*Daily, error) {
	s, err := game.NewSession(5)
	if err != nil {
		return nil, err
	}
	return &Daily{
		deps:    deps,
		logger:  deps.logger().With().Str("user", userID).Str("lang", lang).Logger(),
		key:     progress.Key{UserID: userID, Lang: lang},
		session: s,
	}, nil
}

func (d *Daily) Session() *game.Session  { return d.session }
func (d *Daily) Puzzle() progress.Puzzle { return d.puzzle }
func (d *Daily) Key() progress.Key       { return d.key }

// Load resolves the starting state and moves the session out of LOADING.
func (d *Daily) Load(ctx context.Context) (reconcile.Start, error) {
	p, err := d.deps.Engine.LoadPuzzle(ctx, d.key.Lang)
	if err != nil {
		_ = d.session.Fail(reconcile.FailureMessage(err))
		d.logger.Warn().Err(err).Msg("puzzle unavailable")
		return reconcile.Start{}, err
	}
	d.puzzle = p
	d.key.Date = p.Date
	d.logger = d.logger.With().Str("date", p.Date).Logger()

	if err := d.session.Resize(p.Length); err != nil {
		return reconcile.Start{}, err
	}

	st, err := d.deps.Engine.Resolve(ctx, d.key)
	if err != nil {
		return reconcile.Start{}, err
	}
	if st.Answer != "" && d.puzzle.Answer == "" {
		d.puzzle.Answer = st.Answer
	}

	if st.Origin == reconcile.OriginFresh {
		err = d.session.Begin()
	} else {
		err = d.session.Replay(st.Rows, st.Terminal, st.Won)
	}
	if err != nil {
		return st, err
	}
	d.logger.Info().Str("origin", string(st.Origin)).Int("rows", len(st.Rows)).Msg("puzzle loaded")

	if st.Terminal {
		d.recordOutcome(ctx, st.Won)
		if word := d.finishedAnswer(st); word != "" {
			sum := d.deps.Engine.Summary(ctx, word, d.key.Lang, st.Won)
			st.Summary = &sum
		}
	}
	return st, nil
}

// finishedAnswer is the cached answer, or the winning guess of a replayed game.
func (d *Daily) finishedAnswer(st reconcile.Start) string {
	if d.puzzle.Answer != "" {
		return d.puzzle.Answer
	}
	for _, r := range st.Rows {
		if game.AllCorrect(r.Marks) {
			return game.Normalize(r.Guess)
		}
	}
	return ""
}

// Submit scores the typed row. ErrNotEnoughLetters when it is not full.
func (d *Daily) Submit(ctx context.Context) (Result, error) {
	if !d.submitting.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("%w: submission already in flight", game.ErrState)
	}
	defer d.submitting.Store(false)

	guess, row, err := d.session.PendingGuess()
	if err != nil {
		return Result{}, err
	}
	return d.submit(ctx, guess, row)
}

// SubmitWord replaces the current row with word and submits it.
func (d *Daily) SubmitWord(ctx context.Context, word string) (Result, error) {
	if err := d.session.Type(word); err != nil {
		return Result{}, err
	}
	return d.Submit(ctx)
}

func (d *Daily) score(ctx context.Context, guess string) (marks []game.Mark, offline bool, err error) {
	if d.deps.Net.Online() {
		marks, err = d.deps.Words.Validate(ctx, guess, d.key.Lang, d.key.Date)
		switch {
		case err == nil && len(marks) == len([]rune(guess)):
			return marks, false, nil
		case errors.Is(err, game.ErrInvalidInput):
			return nil, false, err
		case err == nil:
			err = fmt.Errorf("%w: %d marks for %q", game.ErrNetwork, len(marks), guess)
		}
		d.logger.Warn().Err(err).Msg("online validation failed, scoring offline")
	}

	if d.puzzle.Answer == "" {
		return nil, true, fmt.Errorf("score %q offline: %w: answer not cached", guess, game.ErrUnavailable)
	}
	marks, err = game.Score(guess, d.puzzle.Answer)
	return marks, true, err
}

func (d *Daily) submit(ctx context.Context, guess string, row int) (Result, error) {
	marks, offline, err := d.score(ctx, guess)
	if err != nil {
		return Result{}, err
	}

	out, err := d.session.Apply(row, guess, marks)
	if err != nil {
		return Result{}, err
	}
	res := Result{Outcome: out, Offline: offline, Answer: d.puzzle.Answer}
	d.logger.Debug().Int("row", row).Str("state", string(out.State)).Bool("offline", offline).Msg("guess applied")

	won := out.State == game.StateWon
	if err := d.deps.Store.Append(ctx, d.key, progress.Entry{Row: row, Guess: guess, Marks: marks, Won: won}); err != nil {
		d.logger.Warn().Err(err).Int("row", row).Msg("guess not persisted; continuing in memory")
	}

	if !out.State.Terminal() {
		return res, nil
	}

	d.recordOutcome(ctx, won)
	res.Synced = d.submitFinished(ctx, won)
	res.Answer = d.puzzle.Answer
	if res.Answer == "" && won {
		res.Answer = out.Guess
	}
	sum := d.deps.Engine.Summary(ctx, res.Answer, d.key.Lang, won)
	res.Summary = &sum
	return res, nil
}

// submitFinished uploads the finished game when online; otherwise the rows
// stay unsynced for the next sync pass. The upload is built from the session
// rows, so a row that failed to persist is still sent.
func (d *Daily) submitFinished(ctx context.Context, won bool) bool {
	if !d.deps.Net.Online() {
		d.logger.Info().Msg("offline: finished game pending sync")
		return false
	}
	rows := d.session.Rows()
	if len(rows) == 0 {
		d.logger.Warn().Msg("finished game has no rows; pending sync")
		return false
	}
	sub := remote.Submission{
		Date:     d.key.Date,
		Lang:     d.key.Lang,
		Guesses:  lo.Map(rows, func(r game.Row, _ int) string { return r.Guess }),
		Feedback: lo.Map(rows, func(r game.Row, _ int) []game.Mark { return r.Marks }),
		Won:      won,
	}
	res, err := d.deps.Words.Submit(ctx, sub)
	if err != nil {
		d.logger.Warn().Err(err).Msg("submit failed; pending sync")
		return false
	}
	// Stored rows are covered by this upload even when the last one is missing.
	if _, err := d.deps.Store.MarkSynced(ctx, d.key, rows[len(rows)-1].Index); err != nil {
		d.logger.Warn().Err(err).Msg("mark synced")
	}
	if res.Answer != "" {
		d.puzzle.Answer = game.Normalize(res.Answer)
		if err := d.deps.Store.SetAnswer(ctx, d.key.Date, d.key.Lang, res.Answer, true); err != nil {
			d.logger.Warn().Err(err).Msg("cache answer")
		}
	}
	return true
}

func (d *Daily) recordOutcome(ctx context.Context, won bool) {
	if _, err := d.deps.Store.RecordOutcome(ctx, d.key, won); err != nil {
		d.logger.Warn().Err(err).Msg("stats not recorded")
	}
}

// Close tears the screen down; late results are dropped.
func (d *Daily) Close() { d.session.Close() }
