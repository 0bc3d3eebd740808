package reconcile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// Origin names which rule decided the starting state.
type Origin string

const (
	OriginCompleted Origin = "completed" // local store holds a finished game
	OriginResumed   Origin = "resumed"   // local store holds an unfinished game
	OriginRemote    Origin = "remote"    // imported from another device
	OriginFresh     Origin = "fresh"
)

// Start is the resolved starting point of a puzzle screen.
type Start struct {
	Origin   Origin
	Rows     []game.Row
	Won      bool
	Terminal bool
	NextRow  int
	Answer   string
	// Summary is set by the screen once a terminal start is replayed.
	Summary  *Summary
}

// Resolve applies the start-state precedence for k (first match wins):
//  1. local completed → replay, terminal
//  2. local progress  → replay, resume after the highest stored row; when the
//     cached puzzle is flagged played, a finished remote result wins first
//  3. online and authenticated → remote result, imported as synced rows
//  4. fresh board
//
// Local store failures are logged and treated as "nothing stored".
func (e *Engine) Resolve(ctx context.Context, k progress.Key) (Start, error) {
	lg := e.logger.With().Str("user", k.UserID).Str("date", k.Date).Str("lang", k.Lang).Logger()

	done, err := e.store.HasCompleted(ctx, k)
	if err != nil {
		lg.Warn().Err(err).Msg("read completion")
	}
	if done {
		entries, err := e.store.LoadAll(ctx, k)
		if err == nil {
			return startFrom(OriginCompleted, entries, true), nil
		}
		lg.Warn().Err(err).Msg("load completed guesses")
	}

	started, err := e.store.HasAnyProgress(ctx, k)
	if err != nil {
		lg.Warn().Err(err).Msg("read progress")
	}
	asked := false
	if started && e.played(ctx, k) {
		// The finished game left this device but its last rows did not stick.
		asked = true
		if st, ok := e.remoteStart(ctx, k, lg); ok && st.Terminal {
			return st, nil
		}
	}
	if started {
		entries, err := e.store.LoadAll(ctx, k)
		if err == nil {
			return startFrom(OriginResumed, entries, false), nil
		}
		lg.Warn().Err(err).Msg("load stored guesses")
	}

	if !asked {
		if st, ok := e.remoteStart(ctx, k, lg); ok {
			return st, nil
		}
	}
	return Start{Origin: OriginFresh}, nil
}

// played reports the cached puzzle's played flag.
func (e *Engine) played(ctx context.Context, k progress.Key) bool {
	p, err := e.store.Puzzle(ctx, k.Date, k.Lang)
	return err == nil && p.Played
}

// remoteStart imports the user's result from the server when online and authenticated.
func (e *Engine) remoteStart(ctx context.Context, k progress.Key, lg zerolog.Logger) (Start, bool) {
	if !e.net.Online() || !e.auth.Authenticated() {
		return Start{}, false
	}
	res, err := e.words.MyResult(ctx, k.Date, k.Lang)
	switch {
	case err == nil && len(res.Guesses) > 0:
		if st, ok := e.importRemote(ctx, k, res); ok {
			lg.Info().Int("rows", len(st.Rows)).Bool("won", st.Won).Msg("imported result from another device")
			return st, true
		}
	case err != nil && !errors.Is(err, game.ErrNotFound):
		lg.Warn().Err(err).Msg("query remote result")
	}
	return Start{}, false
}

func startFrom(origin Origin, entries []progress.Entry, completed bool) Start {
	st := Start{Origin: origin, Rows: progress.Rows(entries), Won: progress.Won(entries)}
	for _, en := range entries {
		if en.Row+1 > st.NextRow {
			st.NextRow = en.Row + 1
		}
	}
	st.Terminal = completed || st.Won || st.NextRow >= game.MaxAttempts
	return st
}

// importRemote stores a remote result locally as synced rows and caches the
// answer, flagged played once the result is terminal.
func (e *Engine) importRemote(ctx context.Context, k progress.Key, res remote.MyResult) (Start, bool) {
	answer := game.Normalize(res.Answer)
	var entries []progress.Entry
	for i, g := range res.Guesses {
		if i >= game.MaxAttempts {
			break
		}
		var marks []game.Mark
		if i < len(res.FeedbackRows) && len(res.FeedbackRows[i]) == len([]rune(game.Normalize(g))) {
			marks = res.FeedbackRows[i]
		} else if answer != "" {
			m, err := game.Score(g, answer)
			if err != nil {
				return Start{}, false
			}
			marks = m
		} else {
			return Start{}, false
		}
		entries = append(entries, progress.Entry{
			Row:    i,
			Guess:  g,
			Marks:  marks,
			Won:    game.AllCorrect(marks),
			Synced: true,
		})
	}
	if len(entries) == 0 {
		return Start{}, false
	}

	for _, en := range entries {
		if err := e.store.Append(ctx, k, en); err != nil {
			e.logger.Warn().Err(err).Str("user", k.UserID).Int("row", en.Row).Msg("import remote row")
		}
	}
	st := startFrom(OriginRemote, entries, false)
	if res.Won {
		st.Won, st.Terminal = true, true
	}
	if answer != "" {
		st.Answer = answer
		if err := e.store.SetAnswer(ctx, k.Date, k.Lang, answer, st.Terminal); err != nil {
			e.logger.Warn().Err(err).Msg("cache remote answer")
		}
	}
	return st, true
}
