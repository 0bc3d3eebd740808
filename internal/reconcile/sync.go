package reconcile

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// Report is the outcome of one sync pass.
type Report struct {
	Offline bool
	Groups  int
	Synced  int
	Failed  int
}

// NothingToSync is true when the pass ran online and found no unsynced rows.
func (r Report) NothingToSync() bool { return !r.Offline && r.Groups == 0 }

// Partial is true when some groups uploaded and some did not.
func (r Report) Partial() bool { return r.Synced > 0 && r.Failed > 0 }

// Sync uploads every (user, date, lang) group holding unsynced rows.
//
// Each group submits the full stored history (a snapshot read now) and, on
// success, marks synced only the rows of that snapshot. A failed group is
// counted and left unsynced; other groups carry on. The only returned error is
// failing to list unsynced rows.
func (e *Engine) Sync(ctx context.Context) (Report, error) {
	if !e.net.Online() {
		return Report{Offline: true}, nil
	}
	recs, err := e.store.UnsyncedEntries(ctx)
	if err != nil {
		return Report{}, err
	}
	groups := lo.GroupBy(recs, func(r progress.Record) progress.Key { return r.Key })
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Lang < b.Lang
	})

	var (
		mu  sync.Mutex
		rep = Report{Groups: len(keys)}
	)
	var g errgroup.Group
	g.SetLimit(max(1, e.syncConcurrency))
	for _, k := range keys {
		g.Go(func() error {
			ok := e.syncGroup(ctx, k)
			mu.Lock()
			if ok {
				rep.Synced++
			} else {
				rep.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Info().Int("groups", rep.Groups).Int("synced", rep.Synced).Int("failed", rep.Failed).Msg("sync pass finished")
	return rep, nil
}

func (e *Engine) syncGroup(ctx context.Context, k progress.Key) bool {
	lg := e.logger.With().Str("user", k.UserID).Str("date", k.Date).Str("lang", k.Lang).Logger()

	entries, err := e.store.LoadAll(ctx, k)
	if err != nil || len(entries) == 0 {
		lg.Warn().Err(err).Msg("load group for sync")
		return false
	}
	sub := Submission(k, entries)
	res, err := e.words.Submit(ctx, sub)
	if err != nil {
		lg.Warn().Err(err).Msg("submit group")
		return false
	}

	through := entries[len(entries)-1].Row
	if _, err := e.store.MarkSynced(ctx, k, through); err != nil {
		lg.Warn().Err(err).Msg("mark group synced")
		return false
	}
	if res.Answer != "" {
		complete := sub.Won || len(entries) >= game.MaxAttempts
		if err := e.store.SetAnswer(ctx, k.Date, k.Lang, res.Answer, complete); err != nil {
			lg.Warn().Err(err).Msg("cache answer after sync")
		}
	}
	lg.Debug().Int("rows", len(entries)).Msg("group synced")
	return true
}

// Submission builds the remote payload for a stored history.
func Submission(k progress.Key, entries []progress.Entry) remote.Submission {
	return remote.Submission{
		Date:     k.Date,
		Lang:     k.Lang,
		Guesses:  lo.Map(entries, func(e progress.Entry, _ int) string { return e.Guess }),
		Feedback: lo.Map(entries, func(e progress.Entry, _ int) []game.Mark { return e.Marks }),
		Won:      progress.Won(entries),
	}
}
