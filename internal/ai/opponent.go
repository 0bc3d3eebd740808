// internal/ai/opponent.go
//
// Opponent is the computer player of the "vs AI" mode.
//
// Loop, once per row:
//   - wait until the human's current row is past the AI's row (polling),
//   - "think" for the difficulty delay plus a pool-size penalty,
//   - guess, score against the target, report, then narrow the pool to the
//     words consistent with every feedback seen so far.
//
// The loop ends on all-correct (OnWin with rows used), after MaxAttempts rows,
// or when Stop/ctx cancels it at any wait.
package ai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// Profile is the pacing and focus of one difficulty.
// Strictness is the chance of a middle pick instead of exploring.
type Profile struct {
	Delay      time.Duration
	Strictness float64
}

var profiles = map[Difficulty]Profile{
	Easy:   {Delay: 3800 * time.Millisecond, Strictness: 0.55},
	Medium: {Delay: 2600 * time.Millisecond, Strictness: 0.75},
	Hard:   {Delay: 1500 * time.Millisecond, Strictness: 1.0},
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := profiles[d]; !ok {
		return "", fmt.Errorf("%w: difficulty %q", game.ErrInvalidInput, s)
	}
	return d, nil
}

func (d Difficulty) Profile() Profile { return profiles[d] }

const (
	exploreSample = 500
	penaltyCap    = 200
	penaltyBucket = 40
	fallbackGuess = "raise"
)

// Timing controls every wait of the loop. Scale multiplies the think delay.
type Timing struct {
	Poll  time.Duration
	Step  time.Duration
	Scale float64
}

var DefaultTiming = Timing{Poll: 120 * time.Millisecond, Step: 120 * time.Millisecond, Scale: 1}

// ThinkDelay is the pause before a guess: the difficulty delay plus one Step
// per 40 candidates, counting at most 200.
func (t Timing) ThinkDelay(p Profile, poolSize int) time.Duration {
	extra := time.Duration(min(poolSize, penaltyCap)/penaltyBucket) * t.Step
	return time.Duration(float64(p.Delay+extra) * t.Scale)
}

// Move is one AI guess as shown on its board.
type Move struct {
	Row   int
	Guess string
	Marks []game.Mark
}

type Config struct {
	Difficulty Difficulty
	Target     string
	// Pool is the starting candidate list; words of another length are dropped.
	Pool []string
	// PlayerRow reports the human's current row.
	PlayerRow func() int
	OnGuess   func(Move)
	OnWin     func(rowsUsed int)
}

type Option func(*Opponent)

func WithTiming(t Timing) Option         { return func(o *Opponent) { o.timing = t } }
func WithRand(r *rand.Rand) Option       { return func(o *Opponent) { o.rng = r } }
func WithLogger(l zerolog.Logger) Option { return func(o *Opponent) { o.logger = l } }

type Opponent struct {
	cfg     Config
	profile Profile
	target  string
	timing  Timing
	rng     *rand.Rand
	logger  zerolog.Logger

	mu     sync.Mutex
	row    int
	pool   []string
	last   string
	won    bool
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, opts ...Option) (*Opponent, error) {
	p, ok := profiles[cfg.Difficulty]
	if !ok {
		return nil, fmt.Errorf("%w: difficulty %q", game.ErrInvalidInput, cfg.Difficulty)
	}
	target := game.Normalize(cfg.Target)
	n := len([]rune(target))
	if n < game.MinLength || n > game.MaxLength {
		return nil, fmt.Errorf("%w: target %q", game.ErrInvalidInput, cfg.Target)
	}
	if cfg.PlayerRow == nil {
		return nil, fmt.Errorf("%w: player row provider is required", game.ErrInvalidInput)
	}
	pool := lo.Uniq(lo.FilterMap(cfg.Pool, func(w string, _ int) (string, bool) {
		w = game.Normalize(w)
		return w, len([]rune(w)) == n
	}))
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no %d-letter candidates", game.ErrUnavailable, n)
	}

	o := &Opponent{
		cfg:     cfg,
		profile: p,
		target:  target,
		timing:  DefaultTiming,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:  log.Logger,
		pool:    pool,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("difficulty", string(cfg.Difficulty)).Logger()
	return o, nil
}

// Start runs the loop until it ends, ctx is cancelled, or Stop is called.
func (o *Opponent) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	go o.run(ctx)
}

// Stop cancels the loop and waits for it to exit.
func (o *Opponent) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-o.done
}

// Done is closed when the loop has exited.
func (o *Opponent) Done() <-chan struct{} { return o.done }

func (o *Opponent) Row() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.row
}

func (o *Opponent) Won() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.won
}

func (o *Opponent) PoolSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pool)
}

func (o *Opponent) run(ctx context.Context) {
	defer close(o.done)
	for o.Row() < game.MaxAttempts {
		if !o.waitForPlayer(ctx) {
			return
		}
		if !sleep(ctx, o.timing.ThinkDelay(o.profile, o.PoolSize())) {
			return
		}
		if o.step() {
			return
		}
	}
	o.logger.Debug().Msg("ai out of attempts")
}

func (o *Opponent) waitForPlayer(ctx context.Context) bool {
	for o.cfg.PlayerRow() <= o.Row() {
		if !sleep(ctx, o.timing.Poll) {
			return false
		}
	}
	return true
}

// step plays one row and reports whether the AI has won.
func (o *Opponent) step() bool {
	o.mu.Lock()
	explore := o.cfg.Difficulty != Hard && o.rng.Float64() > o.profile.Strictness
	guess := PickGuess(o.pool, explore, o.last)
	marks := game.MustScore(guess, o.target)
	row := o.row
	o.last = guess
	o.mu.Unlock()

	o.logger.Debug().Int("row", row).Str("guess", guess).Bool("explore", explore).Msg("ai guess")
	if o.cfg.OnGuess != nil {
		o.cfg.OnGuess(Move{Row: row, Guess: guess, Marks: marks})
	}

	if game.AllCorrect(marks) {
		o.mu.Lock()
		o.won = true
		o.mu.Unlock()
		if o.cfg.OnWin != nil {
			o.cfg.OnWin(row + 1)
		}
		return true
	}

	o.mu.Lock()
	o.pool = Filter(o.pool, guess, marks)
	o.row++
	o.mu.Unlock()
	return false
}

// Filter keeps the candidates c for which Score(guess, c) equals marks,
// i.e. the words that could still be the target.
func Filter(pool []string, guess string, marks []game.Mark) []string {
	return lo.Filter(pool, func(c string, _ int) bool {
		got, err := game.Score(guess, c)
		return err == nil && game.EqualMarks(got, marks)
	})
}

// PickGuess chooses the next guess from pool.
//
// Without explore it takes the element just before the middle, a fixed
// representative. With explore it takes the word whose distinct letters are
// most frequent across the first 500 candidates; ties go to the earlier word.
// An empty pool repeats last.
func PickGuess(pool []string, explore bool, last string) string {
	if len(pool) == 0 {
		if last == "" {
			return fallbackGuess
		}
		return last
	}
	if !explore {
		return pool[max(0, len(pool)/2-1)]
	}

	freq := make(map[rune]int)
	for _, w := range pool[:min(len(pool), exploreSample)] {
		for _, r := range lo.Uniq([]rune(w)) {
			freq[r]++
		}
	}
	score := func(w string) int {
		return lo.SumBy(lo.Uniq([]rune(w)), func(r rune) int { return freq[r] })
	}
	best, bestScore := pool[0], score(pool[0])
	for _, w := range pool[1:] {
		if s := score(w); s > bestScore {
			best, bestScore = w, s
		}
	}
	return best
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
