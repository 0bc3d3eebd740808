// internal/daily/store.go
//
// Server-side persistence for the reference backend: accounts, daily results
// and Speedle runs.
//
//   - Daily results are last-write-wins per (user, date, lang).
//   - Speedle runs are insert-once per session; the leaderboard ranks by
//     score, then fewer guesses, then earlier finish.
package daily

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Result is a stored daily attempt.
type Result struct {
	UserID    string
	Date      string
	Lang      string
	Guesses   []string
	Feedback  [][]game.Mark
	Won       bool
	Answer    string
	UpdatedAt time.Time
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// SpeedleRun is one finished timed session.
type SpeedleRun struct {
	SessionID     string
	UserID        string
	Username      string
	Date          string
	Duration      int
	Won           bool
	Score         int
	GuessesUsed   int
	TimeRemaining int
	CreatedAt     time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// Open opens the backend database at path and applies its schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backend db: %w: %w", game.ErrPersistence, err)
	}
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sqlitedb.Migrate(db, "daily", sub, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate backend db: %w: %w", game.ErrPersistence, err)
	}
	return NewStore(db), nil
}

func (s *Store) Close() error { return s.db.Close() }

func dbErr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%s: %w", op, game.ErrConflict)
	}
	return fmt.Errorf("%s: %w: %w", op, game.ErrPersistence, err)
}

func encodeRows(rows [][]game.Mark) string {
	return strings.Join(lo.Map(rows, func(r []game.Mark, _ int) string { return game.EncodeMarks(r) }), "|")
}

func decodeRows(s string) ([][]game.Mark, error) {
	if s == "" {
		return nil, nil
	}
	out := make([][]game.Mark, 0, strings.Count(s, "|")+1)
	for _, part := range strings.Split(s, "|") {
		m, err := game.DecodeMarks(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ------------------------------- daily --------------------------------------

// SaveResult stores r, replacing any earlier attempt for the same key.
func (s *Store) SaveResult(ctx context.Context, r Result) error {
	at := r.UpdatedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := sq.Insert("word_results").
		Columns("user_id", "date", "lang", "guesses", "feedback", "won", "answer", "updated_at").
		Values(r.UserID, r.Date, r.Lang, strings.Join(r.Guesses, ","), encodeRows(r.Feedback), r.Won, r.Answer, at.UnixMilli()).
		Suffix(`ON CONFLICT (user_id, date, lang) DO UPDATE SET
			guesses = excluded.guesses,
			feedback = excluded.feedback,
			won = excluded.won,
			answer = excluded.answer,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return dbErr("save result", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return dbErr("save result", err)
	}
	return nil
}

// Result returns the stored attempt or game.ErrNotFound.
func (s *Store) Result(ctx context.Context, userID, date, lang string) (Result, error) {
	query, args, err := sq.Select("guesses", "feedback", "won", "answer", "updated_at").
		From("word_results").
		Where(sq.Eq{"user_id": userID, "date": date, "lang": lang}).
		ToSql()
	if err != nil {
		return Result{}, dbErr("load result", err)
	}
	var (
		guesses, feedback string
		atMs              int64
	)
	r := Result{UserID: userID, Date: date, Lang: lang}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&guesses, &feedback, &r.Won, &r.Answer, &atMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("result %s/%s: %w", date, lang, game.ErrNotFound)
	}
	if err != nil {
		return Result{}, dbErr("load result", err)
	}
	if guesses != "" {
		r.Guesses = strings.Split(guesses, ",")
	}
	if r.Feedback, err = decodeRows(feedback); err != nil {
		return Result{}, err
	}
	r.UpdatedAt = time.UnixMilli(atMs)
	return r, nil
}

// -------------------------------- users -------------------------------------

// CreateUser inserts u. A taken username (case-insensitive) is ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	at := u.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := sq.Insert("users").
		Columns("id", "username", "password_hash", "created_at").
		Values(u.ID, u.Username, u.PasswordHash, at.UnixMilli()).
		ToSql()
	if err != nil {
		return dbErr("create user", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return dbErr("create user", err)
	}
	return nil
}

func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	return s.findUser(ctx, sq.Expr("lower(username) = lower(?)", username))
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.findUser(ctx, sq.Eq{"id": id})
}

func (s *Store) findUser(ctx context.Context, where sq.Sqlizer) (User, error) {
	query, args, err := sq.Select("id", "username", "password_hash", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return User{}, dbErr("find user", err)
	}
	var (
		u    User
		atMs int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Username, &u.PasswordHash, &atMs)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user: %w", game.ErrNotFound)
	}
	if err != nil {
		return User{}, dbErr("find user", err)
	}
	u.CreatedAt = time.UnixMilli(atMs)
	return u, nil
}

// ------------------------------- speedle ------------------------------------

// SaveSpeedle records a finished run and returns its 1-based leaderboard
// position among runs of the same date and duration.
func (s *Store) SaveSpeedle(ctx context.Context, r SpeedleRun) (int, error) {
	at := r.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := sq.Insert("speedle_results").
		Columns("session_id", "user_id", "username", "date", "duration", "won", "score", "guesses_used", "time_remaining", "created_at").
		Values(r.SessionID, r.UserID, r.Username, r.Date, r.Duration, r.Won, r.Score, r.GuessesUsed, r.TimeRemaining, at.UnixMilli()).
		ToSql()
	if err != nil {
		return 0, dbErr("save speedle", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return 0, dbErr("save speedle", err)
	}

	query, args, err = sq.Select("COUNT(1)").
		From("speedle_results").
		Where(sq.Eq{"date": r.Date, "duration": r.Duration}).
		Where(sq.Or{
			sq.Gt{"score": r.Score},
			sq.And{sq.Eq{"score": r.Score}, sq.Lt{"guesses_used": r.GuessesUsed}},
			sq.And{sq.Eq{"score": r.Score, "guesses_used": r.GuessesUsed}, sq.Lt{"created_at": at.UnixMilli()}},
		}).
		ToSql()
	if err != nil {
		return 0, dbErr("rank speedle", err)
	}
	var ahead int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&ahead); err != nil {
		return 0, dbErr("rank speedle", err)
	}
	return ahead + 1, nil
}

// Leaderboard returns the best runs for (date, duration).
func (s *Store) Leaderboard(ctx context.Context, date string, duration, limit int) ([]SpeedleRun, error) {
	query, args, err := sq.Select("session_id", "user_id", "username", "won", "score", "guesses_used", "time_remaining", "created_at").
		From("speedle_results").
		Where(sq.Eq{"date": date, "duration": duration}).
		OrderBy("score DESC", "guesses_used ASC", "created_at ASC").
		Limit(uint64(max(1, limit))).
		ToSql()
	if err != nil {
		return nil, dbErr("leaderboard", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("leaderboard", err)
	}
	defer rows.Close()

	out := []SpeedleRun{}
	for rows.Next() {
		r := SpeedleRun{Date: date, Duration: duration}
		var atMs int64
		if err := rows.Scan(&r.SessionID, &r.UserID, &r.Username, &r.Won, &r.Score, &r.GuessesUsed, &r.TimeRemaining, &atMs); err != nil {
			return nil, dbErr("leaderboard", err)
		}
		r.CreatedAt = time.UnixMilli(atMs)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("leaderboard", err)
	}
	return out, nil
}
