package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// PuzzleRetention is how long cached puzzles are kept by PrunePuzzles callers.
const PuzzleRetention = 7 * 24 * time.Hour

// Puzzle is the cached copy of one day's puzzle metadata.
type Puzzle struct {
	Date          string
	Lang          string
	Mode          string
	Length        int
	HasDefinition bool
	HasSynonym    bool
	Answer        string
	Played        bool
	CachedAt      time.Time
}

// SavePuzzle caches puzzle metadata. A known answer or played flag is never
// cleared by a later save that lacks them.
func (s *Store) SavePuzzle(ctx context.Context, p Puzzle) error {
	if p.Date == "" || p.Lang == "" {
		return fmt.Errorf("%w: puzzle needs date and lang", game.ErrInvalidInput)
	}
	if p.Mode == "" {
		p.Mode = "daily"
	}
	at := p.CachedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := sq.Insert("cached_puzzles").
		Columns("date", "lang", "mode", "length", "has_definition", "has_synonym", "answer", "played", "cached_at").
		Values(p.Date, p.Lang, p.Mode, p.Length, p.HasDefinition, p.HasSynonym, game.Normalize(p.Answer), p.Played, at.UnixMilli()).
		Suffix(`ON CONFLICT (date, lang) DO UPDATE SET
			mode = excluded.mode,
			length = excluded.length,
			has_definition = excluded.has_definition,
			has_synonym = excluded.has_synonym,
			answer = CASE WHEN excluded.answer <> '' THEN excluded.answer ELSE cached_puzzles.answer END,
			played = MAX(cached_puzzles.played, excluded.played),
			cached_at = excluded.cached_at`).
		ToSql()
	if err != nil {
		return persistErr("save puzzle", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return persistErr("save puzzle", err)
	}
	return nil
}

// Puzzle returns the cached puzzle for (date, lang) or game.ErrNotFound.
func (s *Store) Puzzle(ctx context.Context, date, lang string) (Puzzle, error) {
	query, args, err := sq.Select("date", "lang", "mode", "length", "has_definition", "has_synonym", "answer", "played", "cached_at").
		From("cached_puzzles").
		Where(sq.Eq{"date": date, "lang": lang}).
		ToSql()
	if err != nil {
		return Puzzle{}, persistErr("load puzzle", err)
	}
	var (
		p    Puzzle
		atMs int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.Date, &p.Lang, &p.Mode, &p.Length, &p.HasDefinition, &p.HasSynonym, &p.Answer, &p.Played, &atMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Puzzle{}, fmt.Errorf("cached puzzle %s/%s: %w", date, lang, game.ErrNotFound)
	}
	if err != nil {
		return Puzzle{}, persistErr("load puzzle", err)
	}
	p.CachedAt = time.UnixMilli(atMs)
	return p, nil
}

// SetAnswer records the answer (and the played flag) once it is learned.
// A missing cached row is not an error; it is logged and skipped.
func (s *Store) SetAnswer(ctx context.Context, date, lang, answer string, played bool) error {
	upd := sq.Update("cached_puzzles").
		Set("answer", game.Normalize(answer)).
		Where(sq.Eq{"date": date, "lang": lang})
	if played {
		upd = upd.Set("played", true)
	}
	query, args, err := upd.ToSql()
	if err != nil {
		return persistErr("set answer", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return persistErr("set answer", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Warn().Str("date", date).Str("lang", lang).Msg("no cached puzzle to attach answer to")
	}
	return nil
}

// PrunePuzzles deletes cached puzzles dated before the cutoff day.
func (s *Store) PrunePuzzles(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.UTC().Format("2006-01-02")
	query, args, err := sq.Delete("cached_puzzles").Where(sq.Lt{"date": cutoff}).ToSql()
	if err != nil {
		return 0, persistErr("prune puzzles", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, persistErr("prune puzzles", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Str("before", cutoff).Msg("pruned cached puzzles")
	}
	return n, nil
}
