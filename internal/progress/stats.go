package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// Stats is a player's aggregate record.
type Stats struct {
	Played        int
	Wins          int
	Losses        int
	CurrentStreak int
	MaxStreak     int
	LastPlayed    string
}

// WinRate is the rounded win percentage (0 when nothing was played).
func (st Stats) WinRate() int {
	if st.Played == 0 {
		return 0
	}
	return int(math.Round(float64(st.Wins) * 100 / float64(st.Played)))
}

// apply folds one outcome on date into the stats.
//
// Streak: a win the day after the last played date extends it, a win on the
// same date keeps it, any other win starts at 1; a loss resets it.
func (st Stats) apply(date string, won bool) Stats {
	st.Played++
	if !won {
		st.Losses++
		st.CurrentStreak = 0
		st.LastPlayed = date
		return st
	}
	st.Wins++
	switch {
	case st.LastPlayed == date && st.CurrentStreak > 0:
	case st.LastPlayed != "" && isNextDay(st.LastPlayed, date):
		st.CurrentStreak++
	default:
		st.CurrentStreak = 1
	}
	st.MaxStreak = max(st.MaxStreak, st.CurrentStreak)
	st.LastPlayed = date
	return st
}

func isNextDay(prev, date string) bool {
	p, err1 := time.Parse("2006-01-02", prev)
	d, err2 := time.Parse("2006-01-02", date)
	if err1 != nil || err2 != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(d)
}

// RecordOutcome updates stats for a completed puzzle exactly once per key.
// recorded is false when the outcome had already been counted.
func (s *Store) RecordOutcome(ctx context.Context, k Key, won bool) (recorded bool, err error) {
	if err := k.validate(); err != nil {
		return false, err
	}
	unlock := s.lock(k)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistErr("record outcome", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := sq.Insert("recorded_outcomes").
		Columns("user_id", "date", "lang", "won", "recorded_at").
		Values(k.UserID, k.Date, k.Lang, won, s.now().UnixMilli()).
		Options("OR IGNORE").
		ToSql()
	if err != nil {
		return false, persistErr("record outcome", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, persistErr("record outcome", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = tx.Rollback()
		if err != nil {
			return false, persistErr("record outcome", err)
		}
		return false, nil
	}

	st, err := loadStats(ctx, tx, k.UserID)
	if err != nil {
		return false, err
	}
	st = st.apply(k.Date, won)

	query, args, err = sq.Insert("player_stats").
		Columns("user_id", "played", "wins", "losses", "current_streak", "max_streak", "last_played_date").
		Values(k.UserID, st.Played, st.Wins, st.Losses, st.CurrentStreak, st.MaxStreak, st.LastPlayed).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			played = excluded.played,
			wins = excluded.wins,
			losses = excluded.losses,
			current_streak = excluded.current_streak,
			max_streak = excluded.max_streak,
			last_played_date = excluded.last_played_date`).
		ToSql()
	if err != nil {
		return false, persistErr("record outcome", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return false, persistErr("record outcome", err)
	}
	if err = tx.Commit(); err != nil {
		return false, persistErr("record outcome", err)
	}
	s.logger.Info().Str("user", k.UserID).Str("date", k.Date).Str("lang", k.Lang).Bool("won", won).
		Int("streak", st.CurrentStreak).Msg("outcome recorded")
	return true, nil
}

// Stats returns the aggregate record for a user (zero value if none).
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	return loadStats(ctx, s.db, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadStats(ctx context.Context, q queryRower, userID string) (Stats, error) {
	query, args, err := sq.Select("played", "wins", "losses", "current_streak", "max_streak", "last_played_date").
		From("player_stats").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return Stats{}, persistErr("load stats", err)
	}
	var st Stats
	err = q.QueryRowContext(ctx, query, args...).
		Scan(&st.Played, &st.Wins, &st.Losses, &st.CurrentStreak, &st.MaxStreak, &st.LastPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w: %w", game.ErrPersistence, err)
	}
	return st, nil
}
