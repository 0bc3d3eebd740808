// internal/speedle/controller.go
//
// Controller runs one timed Speedle session.
//
// Clocks:
//   - preCountdown: a short display countdown before the main clock starts.
//     It blocks nothing; the board accepts input while it runs.
//   - remaining: ticks down once per Tick while PLAYING. It only interpolates
//     between server replies; every validate/hint reply overwrites it.
//
// The session finishes exactly once, with reason won, attempts or timeout.
package speedle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// EndReason is sent to the service when the session finishes.
type EndReason string

const (
	ReasonWon      EndReason = "won"
	ReasonAttempts EndReason = "attempts"
	ReasonTimeout  EndReason = "timeout"
)

const (
	DefaultDuration  = 90
	DefaultCountdown = 3

	MsgStartFailed = "Couldn't start Speedle."
	MsgNoHint      = "No hint available."
)

// Result is the finished session. Err is set when the finish call failed;
// Won then falls back to the local outcome.
type Result struct {
	remote.SpeedleResult
	Reason EndReason
	Err    error
}

type Option func(*Controller)

// WithOnFinish is called on the finishing goroutine; it must not call Stop.
func WithOnFinish(fn func(Result)) Option { return func(c *Controller) { c.onFinish = fn } }
func WithLogger(l zerolog.Logger) Option  { return func(c *Controller) { c.logger = l } }
func WithTick(d time.Duration) Option     { return func(c *Controller) { c.tick = d } }
func WithCountdown(sec int) Option        { return func(c *Controller) { c.countdown = max(0, sec) } }

type Controller struct {
	svc       remote.Speedle
	logger    zerolog.Logger
	tick      time.Duration
	countdown int
	onFinish  func(Result)

	session    *game.Session
	submitting atomic.Bool
	finishing  atomic.Bool
	done       chan struct{}

	mu          sync.Mutex
	sessionID   string
	duration    int
	remaining   int
	pre         int
	guessesUsed int
	result      Result
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(svc remote.Speedle, opts ...Option) *Controller {
	c := &Controller{
		svc:       svc,
		logger:    log.Logger,
		tick:      time.Second,
		countdown: DefaultCountdown,
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	// five letters is only the placeholder until the service picks a word
	c.session, _ = game.NewSession(5)
	return c
}

func (c *Controller) Session() *game.Session { return c.session }

// Done is closed once the session has finished and the result is stored.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Start opens a remote session and starts the clocks. The clocks stop when
// ctx is cancelled, on finish, or on Stop.
func (c *Controller) Start(ctx context.Context, lang string, durationSec int) (remote.SpeedleStart, error) {
	if durationSec <= 0 {
		durationSec = DefaultDuration
	}
	st, err := c.svc.Start(ctx, lang, durationSec)
	if err != nil {
		_ = c.session.Fail(MsgStartFailed)
		c.logger.Warn().Err(err).Str("lang", lang).Msg("speedle start failed")
		return remote.SpeedleStart{}, fmt.Errorf("start speedle: %w", err)
	}
	st.Length = min(max(st.Length, game.MinLength), game.MaxLength)
	if st.Duration <= 0 {
		st.Duration = durationSec
	}

	if err := c.session.Resize(st.Length); err != nil {
		return st, err
	}
	if err := c.session.Begin(); err != nil {
		return st, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.sessionID = st.SessionID
	c.duration = st.Duration
	c.remaining = st.Duration
	c.pre = c.countdown
	c.cancel = cancel
	c.mu.Unlock()

	c.logger = c.logger.With().Str("session", st.SessionID).Logger()
	c.logger.Info().Int("length", st.Length).Int("duration", st.Duration).Msg("speedle started")

	c.wg.Add(1)
	go c.run(runCtx)
	return st, nil
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()
	t := time.NewTicker(c.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if c.session.State() != game.StatePlaying {
			return
		}
		if !c.step() {
			continue
		}
		if c.session.Expire() {
			c.finish(ctx, ReasonTimeout)
		}
		return
	}
}

// step advances the clocks by one tick and reports whether time is up.
func (c *Controller) step() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pre > 0 {
		c.pre--
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining <= 0
}

// Remaining is the displayed seconds left.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// PreCountdown is the seconds left before the main clock starts; 0 once it runs.
func (c *Controller) PreCountdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pre
}

func (c *Controller) GuessesUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guessesUsed
}

// Submit sends the typed row to the service and applies its feedback.
func (c *Controller) Submit(ctx context.Context) (game.Outcome, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return game.Outcome{}, fmt.Errorf("%w: submission already in flight", game.ErrState)
	}
	defer c.submitting.Store(false)

	guess, row, err := c.session.PendingGuess()
	if err != nil {
		return game.Outcome{}, err
	}
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()

	resp, err := c.svc.Validate(ctx, id, guess)
	if err != nil {
		return game.Outcome{}, fmt.Errorf("validate %q: %w", guess, err)
	}
	c.mu.Lock()
	c.remaining = max(0, resp.RemainingSec)
	c.guessesUsed = max(resp.GuessesUsed, row+1)
	c.mu.Unlock()

	out, err := c.session.Apply(row, guess, resp.Feedback)
	if err != nil {
		return out, err
	}
	c.logger.Debug().Int("row", row).Str("state", string(out.State)).Int("remaining", resp.RemainingSec).Msg("speedle guess")

	switch out.State {
	case game.StateWon:
		c.finish(ctx, ReasonWon)
	case game.StateLost:
		c.finish(ctx, ReasonAttempts)
	}
	return out, nil
}

// SubmitWord replaces the current row with word and submits it.
func (c *Controller) SubmitWord(ctx context.Context, word string) (game.Outcome, error) {
	if err := c.session.Type(word); err != nil {
		return game.Outcome{}, err
	}
	return c.Submit(ctx)
}

// Hint trades time for the answer's definition. Only while PLAYING.
func (c *Controller) Hint(ctx context.Context) (string, error) {
	if c.session.State() != game.StatePlaying {
		return "", fmt.Errorf("%w: hint while %s", game.ErrState, c.session.State())
	}
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()

	h, err := c.svc.Hint(ctx, id)
	if err != nil {
		return "", fmt.Errorf("hint: %w", err)
	}
	c.mu.Lock()
	c.remaining = max(0, h.RemainingSec)
	c.mu.Unlock()
	c.logger.Debug().Int("remaining", h.RemainingSec).Msg("hint used")
	if h.Definition == "" {
		return MsgNoHint, nil
	}
	return h.Definition, nil
}

func (c *Controller) finish(ctx context.Context, reason EndReason) {
	if !c.finishing.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	req := remote.SpeedleFinishRequest{
		SessionID:          c.sessionID,
		EndReason:          string(reason),
		ClientGuessesUsed:  c.guessesUsed,
		ClientTimeTakenSec: c.duration - c.remaining,
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	res := Result{Reason: reason}
	sr, err := c.svc.Finish(context.WithoutCancel(ctx), req)
	if err != nil {
		res.Err = err
		res.Won = reason == ReasonWon
		res.GuessesUsed = req.ClientGuessesUsed
		c.logger.Warn().Err(err).Str("reason", string(reason)).Msg("speedle finish failed")
	} else {
		res.SpeedleResult = sr
		c.logger.Info().Str("reason", string(reason)).Bool("won", sr.Won).Int("score", sr.Score).Msg("speedle finished")
	}

	c.mu.Lock()
	c.result = res
	c.mu.Unlock()
	close(c.done)
	if c.onFinish != nil {
		c.onFinish(res)
	}
}

// Result returns the finished session, false until Done is closed.
func (c *Controller) Result() (Result, bool) {
	select {
	case <-c.done:
	default:
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, true
}

// Stop tears the controller down: the clocks stop and later results are
// dropped. It does not finish the remote session.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
	c.session.Close()
}
