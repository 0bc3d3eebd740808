// internal/progress/store.go
//
// OfflineProgressStore on SQLite.
//
// Responsibilities:
//   - Guess log keyed by (user, date, lang, row) with upsert semantics.
//   - Completion/progress queries used by the reconciliation engine.
//   - Unsynced listing and synced marking for the sync pass.
//
// Writes are serialized per Key; unrelated keys interleave freely.
// Storage failures are wrapped with game.ErrPersistence.
package progress

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Key identifies one player's attempt at one puzzle.
type Key struct {
	UserID string
	Date   string
	Lang   string
}

// Entry is one stored guess row.
type Entry struct {
	Row    int
	Guess  string
	Marks  []game.Mark
	Won    bool
	At     time.Time
	Synced bool
}

// Record pairs an entry with its key (used by the unsynced listing).
type Record struct {
	Key
	Entry
}

// Store is the SQLite-backed progress store.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l zerolog.Logger) Option    { return func(s *Store) { s.logger = l } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New wraps an already migrated database.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: log.Logger,
		now:    time.Now,
		locks:  make(map[Key]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens the database at path, applies migrations and returns a Store.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w: %w", game.ErrPersistence, err)
	}
	s := New(db, opts...)
	if err := Migrate(db, s.logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the store's schema to db.
func Migrate(db *sql.DB, logger zerolog.Logger) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	if err := sqlitedb.Migrate(db, "progress", sub, logger); err != nil {
		return fmt.Errorf("migrate progress db: %w: %w", game.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// lock serializes writers of one key.
func (s *Store) lock(k Key) func() {
	s.mu.Lock()
	m, ok := s.locks[k]
	if !ok {
		m = &sync.Mutex{}
		s.locks[k] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, game.ErrPersistence, err)
}

func (k Key) eq() sq.Eq {
	return sq.Eq{"user_id": k.UserID, "date": k.Date, "lang": k.Lang}
}

func (k Key) validate() error {
	if k.UserID == "" || k.Date == "" || k.Lang == "" {
		return fmt.Errorf("%w: incomplete progress key %+v", game.ErrInvalidInput, k)
	}
	return nil
}

// Append stores a guess row. Writing the same row again replaces its content
// and, unless e.Synced is set, marks it unsynced.
func (s *Store) Append(ctx context.Context, k Key, e Entry) error {
	if err := k.validate(); err != nil {
		return err
	}
	if e.Row < 0 || e.Row >= game.MaxAttempts {
		return fmt.Errorf("%w: row %d outside 0..%d", game.ErrInvalidInput, e.Row, game.MaxAttempts-1)
	}
	at := e.At
	if at.IsZero() {
		at = s.now()
	}

	q := sq.Insert("offline_guesses").
		Columns("user_id", "date", "lang", "row_index", "guess", "feedback", "won", "created_at", "synced").
		Values(k.UserID, k.Date, k.Lang, e.Row, game.Normalize(e.Guess), game.EncodeMarks(e.Marks), e.Won, at.UnixMilli(), e.Synced).
		Suffix(`ON CONFLICT (user_id, date, lang, row_index) DO UPDATE SET
			guess = excluded.guess,
			feedback = excluded.feedback,
			won = excluded.won,
			created_at = excluded.created_at,
			synced = excluded.synced`)
	query, args, err := q.ToSql()
	if err != nil {
		return persistErr("append guess", err)
	}

	unlock := s.lock(k)
	defer unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return persistErr("append guess", err)
	}
	s.logger.Debug().Str("user", k.UserID).Str("date", k.Date).Str("lang", k.Lang).Int("row", e.Row).Msg("guess stored")
	return nil
}

// LoadAll returns the stored guesses for k ordered by row.
func (s *Store) LoadAll(ctx context.Context, k Key) ([]Entry, error) {
	query, args, err := sq.Select("row_index", "guess", "feedback", "won", "created_at", "synced").
		From("offline_guesses").
		Where(k.eq()).
		OrderBy("row_index ASC").
		ToSql()
	if err != nil {
		return nil, persistErr("load guesses", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("load guesses", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("load guesses", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner, extra ...any) (Entry, error) {
	var (
		e        Entry
		feedback string
		atMs     int64
	)
	dest := append(extra, &e.Row, &e.Guess, &feedback, &e.Won, &atMs, &e.Synced)
	if err := sc.Scan(dest...); err != nil {
		return Entry{}, persistErr("scan guess", err)
	}
	marks, err := game.DecodeMarks(feedback)
	if err != nil {
		return Entry{}, persistErr("decode feedback", err)
	}
	e.Marks = marks
	e.At = time.UnixMilli(atMs)
	return e, nil
}

// HasCompleted is true iff a stored guess won or the last row was used.
func (s *Store) HasCompleted(ctx context.Context, k Key) (bool, error) {
	query, args, err := sq.Select("COALESCE(MAX(won), 0)", "COALESCE(MAX(row_index), -1)").
		From("offline_guesses").
		Where(k.eq()).
		ToSql()
	if err != nil {
		return false, persistErr("has completed", err)
	}
	var won, maxRow int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&won, &maxRow); err != nil {
		return false, persistErr("has completed", err)
	}
	return won > 0 || maxRow >= game.MaxAttempts-1, nil
}

// HasAnyProgress is true iff at least one guess is stored for k.
func (s *Store) HasAnyProgress(ctx context.Context, k Key) (bool, error) {
	query, args, err := sq.Select("COUNT(1)").From("offline_guesses").Where(k.eq()).ToSql()
	if err != nil {
		return false, persistErr("has progress", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, persistErr("has progress", err)
	}
	return n > 0, nil
}

// UnsyncedEntries lists every unsynced guess across all keys, ordered by key then row.
func (s *Store) UnsyncedEntries(ctx context.Context) ([]Record, error) {
	query, args, err := sq.Select("user_id", "date", "lang", "row_index", "guess", "feedback", "won", "created_at", "synced").
		From("offline_guesses").
		Where(sq.Eq{"synced": false}).
		OrderBy("user_id", "date", "lang", "row_index").
		ToSql()
	if err != nil {
		return nil, persistErr("list unsynced", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list unsynced", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		e, err := scanEntry(rows, &r.UserID, &r.Date, &r.Lang)
		if err != nil {
			return nil, err
		}
		r.Entry = e
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list unsynced", err)
	}
	return out, nil
}

// MarkSynced flips synced for the rows of k up to and including throughRow.
// Call only after the remote write of those rows succeeded; rows written later
// by a live game stay unsynced.
func (s *Store) MarkSynced(ctx context.Context, k Key, throughRow int) (int64, error) {
	query, args, err := sq.Update("offline_guesses").
		Set("synced", true).
		Where(k.eq()).
		Where(sq.LtOrEq{"row_index": throughRow}).
		Where(sq.Eq{"synced": false}).
		ToSql()
	if err != nil {
		return 0, persistErr("mark synced", err)
	}

	unlock := s.lock(k)
	defer unlock()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, persistErr("mark synced", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Won reports whether any entry in the slice is a winning row.
func Won(entries []Entry) bool {
	for _, e := range entries {
		if e.Won {
			return true
		}
	}
	return false
}

// Rows converts entries into replayable board rows.
func Rows(entries []Entry) []game.Row {
	out := make([]game.Row, len(entries))
	for i, e := range entries {
		out[i] = game.Row{Index: e.Row, Guess: e.Guess, Marks: e.Marks}
	}
	return out
}
