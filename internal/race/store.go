// internal/race/store.go
//
// Friend-race rooms on Redis.
//
// Layout per room code:
//   - race:room:<CODE>          hash   host_uid, host_name, status, word, created_at
//   - race:room:<CODE>:players  hash   uid → display name
//   - race:room:<CODE>:events   stream one entry per posted guess, in order
//
// Every key expires with the room (RoomTTL) so abandoned races clean up.
package race

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusReady     Status = "ready"
	StatusCancelled Status = "cancelled"
)

const (
	RoomTTL      = 24 * time.Hour
	PollInterval = 250 * time.Millisecond
	txRetries    = 3
	readBatch    = 100
)

// ErrMissingRoomCode aborts a race screen opened without a room.
var ErrMissingRoomCode = errors.New("race: missing room code")

var codeRe = regexp.MustCompile(`^[A-Z0-9]{4,8}$`)

// NormalizeCode uppercases and validates a room code.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", ErrMissingRoomCode
	}
	if !codeRe.MatchString(c) {
		return "", fmt.Errorf("%w: room code must be 4-8 letters or digits", game.ErrInvalidInput)
	}
	return c, nil
}

type Player struct {
	UID  string
	Name string
}

type Room struct {
	Code      string
	HostUID   string
	HostName  string
	Status    Status
	Word      string
	CreatedAt time.Time
}

// GuessEvent is one posted guess.
type GuessEvent struct {
	ID       string
	StreamID string
	UserID   string
	Guess    string
	Feedback []game.Mark
	Row      int
	TS       time.Time
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option      { return func(s *Store) { s.logger = l } }
func WithClock(now func() time.Time) Option   { return func(s *Store) { s.now = now } }
func WithPollInterval(d time.Duration) Option { return func(s *Store) { s.poll = d } }

type Store struct {
	rdb    *redis.Client
	logger zerolog.Logger
	now    func() time.Time
	poll   time.Duration
}

func NewStore(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, logger: log.Logger, now: time.Now, poll: PollInterval}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w: %w", addr, game.ErrNetwork, err)
	}
	return rdb, nil
}

func roomKey(code string) string    { return "race:room:" + code }
func playersKey(code string) string { return "race:room:" + code + ":players" }
func eventsKey(code string) string  { return "race:room:" + code + ":events" }

func redisErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, game.ErrNetwork, err)
}

// watch runs fn in an optimistic transaction on the room key, retrying when
// another client touched the room first.
func (s *Store) watch(ctx context.Context, code string, fn func(*redis.Tx) error) error {
	for i := 0; i < txRetries; i++ {
		err := s.rdb.Watch(ctx, fn, roomKey(code))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("room %s: %w: concurrent update", code, game.ErrConflict)
}

// CreateRoom opens a waiting room hosted by host. An existing code is a conflict.
func (s *Store) CreateRoom(ctx context.Context, code string, host Player, word string) (Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Room{}, err
	}
	room := Room{
		Code:      code,
		HostUID:   host.UID,
		HostName:  host.Name,
		Status:    StatusWaiting,
		Word:      game.Normalize(word),
		CreatedAt: s.now().UTC(),
	}
	n := len([]rune(room.Word))
	if host.UID == "" || n < game.MinLength || n > game.MaxLength {
		return Room{}, fmt.Errorf("%w: room needs a host and a %d-%d letter word", game.ErrInvalidInput, game.MinLength, game.MaxLength)
	}

	err = s.watch(ctx, code, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, roomKey(code)).Result()
		if err != nil {
			return redisErr("create room", err)
		}
		if exists > 0 {
			return fmt.Errorf("room %s: %w: already exists", code, game.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, roomKey(code),
				"host_uid", room.HostUID,
				"host_name", room.HostName,
				"status", string(room.Status),
				"word", room.Word,
				"created_at", room.CreatedAt.UnixMilli())
			p.HSet(ctx, playersKey(code), host.UID, host.Name)
			p.Expire(ctx, roomKey(code), RoomTTL)
			p.Expire(ctx, playersKey(code), RoomTTL)
			return nil
		})
		if err != nil {
			return redisErr("create room", err)
		}
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	s.logger.Info().Str("room", code).Str("user", host.UID).Msg("room created")
	return room, nil
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (s *Store) readRoom(ctx context.Context, c hashReader, code string) (Room, error) {
	vals, err := c.HGetAll(ctx, roomKey(code)).Result()
	if err != nil {
		return Room{}, redisErr("read room", err)
	}
	if len(vals) == 0 {
		return Room{}, fmt.Errorf("room %s: %w", code, game.ErrNotFound)
	}
	ms, _ := strconv.ParseInt(vals["created_at"], 10, 64)
	return Room{
		Code:      code,
		HostUID:   vals["host_uid"],
		HostName:  vals["host_name"],
		Status:    Status(vals["status"]),
		Word:      vals["word"],
		CreatedAt: time.UnixMilli(ms).UTC(),
	}, nil
}

// Room returns the room stored under code.
func (s *Store) Room(ctx context.Context, code string) (Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Room{}, err
	}
	return s.readRoom(ctx, s.rdb, code)
}

// JoinRoom adds p to a waiting room and flips it to ready.
// A missing room is ErrNotFound; a room that is not waiting is ErrConflict.
func (s *Store) JoinRoom(ctx context.Context, code string, p Player) (Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Room{}, err
	}
	if p.UID == "" {
		return Room{}, fmt.Errorf("%w: player id is required", game.ErrInvalidInput)
	}

	var room Room
	err = s.watch(ctx, code, func(tx *redis.Tx) error {
		r, err := s.readRoom(ctx, tx, code)
		if err != nil {
			return err
		}
		if r.Status != StatusWaiting {
			return fmt.Errorf("room %s is %s: %w", code, r.Status, game.ErrConflict)
		}
		if r.HostUID == p.UID {
			return fmt.Errorf("%w: host cannot join their own room", game.ErrInvalidInput)
		}
		_, err = tx.TxPipelined(ctx, func(pl redis.Pipeliner) error {
			pl.HSet(ctx, playersKey(code), p.UID, p.Name)
			pl.HSet(ctx, roomKey(code), "status", string(StatusReady))
			return nil
		})
		if err != nil {
			return redisErr("join room", err)
		}
		r.Status = StatusReady
		room = r
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	s.logger.Info().Str("room", code).Str("user", p.UID).Msg("player joined")
	return room, nil
}

func (s *Store) PlayerCount(ctx context.Context, code string) (int, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return 0, err
	}
	n, err := s.rdb.HLen(ctx, playersKey(code)).Result()
	if err != nil {
		return 0, redisErr("count players", err)
	}
	return int(n), nil
}

// CancelRoom marks the room cancelled; later joins are rejected.
func (s *Store) CancelRoom(ctx context.Context, code string) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	err = s.watch(ctx, code, func(tx *redis.Tx) error {
		if _, err := s.readRoom(ctx, tx, code); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, roomKey(code), "status", string(StatusCancelled))
			return nil
		})
		if err != nil {
			return redisErr("cancel room", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("room", code).Msg("room cancelled")
	return nil
}

// PostGuess appends ev to the room's event stream and returns it with its ids.
func (s *Store) PostGuess(ctx context.Context, code string, ev GuessEvent) (GuessEvent, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return GuessEvent{}, err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.TS.IsZero() {
		ev.TS = s.now().UTC()
	}
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: eventsKey(code),
		Values: map[string]any{
			"id":       ev.ID,
			"user_id":  ev.UserID,
			"guess":    game.Normalize(ev.Guess),
			"feedback": game.EncodeMarks(ev.Feedback),
			"row":      ev.Row,
			"ts":       ev.TS.UnixMilli(),
		},
	}).Result()
	if err != nil {
		return GuessEvent{}, redisErr("post guess", err)
	}
	s.rdb.Expire(ctx, eventsKey(code), RoomTTL)
	ev.StreamID = id
	return ev, nil
}

func decodeEvent(msg redis.XMessage) (GuessEvent, error) {
	str := func(k string) string {
		v, _ := msg.Values[k].(string)
		return v
	}
	marks, err := game.DecodeMarks(str("feedback"))
	if err != nil {
		return GuessEvent{}, err
	}
	row, err := strconv.Atoi(str("row"))
	if err != nil {
		return GuessEvent{}, fmt.Errorf("%w: row %q", game.ErrInvalidInput, str("row"))
	}
	ms, _ := strconv.ParseInt(str("ts"), 10, 64)
	return GuessEvent{
		ID:       str("id"),
		StreamID: msg.ID,
		UserID:   str("user_id"),
		Guess:    str("guess"),
		Feedback: marks,
		Row:      row,
		TS:       time.UnixMilli(ms).UTC(),
	}, nil
}

// Observe delivers every event of the room, oldest first, to fn until ctx is
// done. It polls the stream; undecodable entries are logged and skipped.
func (s *Store) Observe(ctx context.Context, code string, fn func(GuessEvent)) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	lg := s.logger.With().Str("room", code).Logger()
	last := "0"
	t := time.NewTicker(s.poll)
	defer t.Stop()
	for {
		streams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{eventsKey(code), last},
			Count:   readBatch,
			Block:   -1,
		}).Result()
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, redis.Nil):
		case err != nil:
			lg.Warn().Err(err).Msg("read race events")
		default:
			for _, st := range streams {
				for _, msg := range st.Messages {
					last = msg.ID
					ev, err := decodeEvent(msg)
					if err != nil {
						lg.Warn().Err(err).Str("stream_id", msg.ID).Msg("skip race event")
						continue
					}
					fn(ev)
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
