package speedle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

// fakeService plays the server side of one session against answer.
type fakeService struct {
	mu        sync.Mutex
	answer    string
	length    int
	startErr  error
	remaining int
	guesses   int
	finishes  []remote.SpeedleFinishRequest
}

func (f *fakeService) Start(ctx context.Context, lang string, durationSec int) (remote.SpeedleStart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return remote.SpeedleStart{}, f.startErr
	}
	f.remaining = durationSec
	n := f.length
	if n == 0 {
		n = len(f.answer)
	}
	return remote.SpeedleStart{SessionID: "s-1", WordID: "w-1", Length: n, Duration: durationSec}, nil
}

func (f *fakeService) Validate(ctx context.Context, sessionID, guess string) (remote.SpeedleGuess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	marks, err := game.Score(guess, f.answer)
	if err != nil {
		return remote.SpeedleGuess{}, err
	}
	f.guesses++
	return remote.SpeedleGuess{Feedback: marks, Won: game.AllCorrect(marks), GuessesUsed: f.guesses, RemainingSec: f.remaining}, nil
}

func (f *fakeService) Hint(ctx context.Context, sessionID string) (remote.SpeedleHint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining = max(0, f.remaining-10)
	return remote.SpeedleHint{Definition: "A large wading bird.", RemainingSec: f.remaining}, nil
}

func (f *fakeService) Finish(ctx context.Context, req remote.SpeedleFinishRequest) (remote.SpeedleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, req)
	won := req.EndReason == string(ReasonWon)
	return remote.SpeedleResult{Won: won, Answer: f.answer, GuessesUsed: f.guesses, TimeRemainingSec: f.remaining}, nil
}

func (f *fakeService) Leaderboard(ctx context.Context, date string, duration, limit int) ([]remote.LeaderboardRow, error) {
	return nil, nil
}

func (f *fakeService) setRemaining(n int) {
	f.mu.Lock()
	f.remaining = n
	f.mu.Unlock()
}

func (f *fakeService) finished() []remote.SpeedleFinishRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remote.SpeedleFinishRequest(nil), f.finishes...)
}

func newController(svc remote.Speedle, opts ...Option) *Controller {
	base := []Option{WithLogger(zerolog.Nop()), WithTick(time.Hour), WithCountdown(0)}
	return New(svc, append(base, opts...)...)
}

func waitDone(t *testing.T, c *Controller) Result {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	res, ok := c.Result()
	require.True(t, ok)
	return res
}

func TestControllerWin(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{answer: "crane"}
	c := newController(svc)
	t.Cleanup(c.Stop)

	st, err := c.Start(ctx, "en", 60)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Length)
	assert.Equal(t, 60, c.Remaining())

	out, err := c.SubmitWord(ctx, "slate")
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying, out.State)

	svc.setRemaining(41)
	out, err = c.SubmitWord(ctx, "crane")
	require.NoError(t, err)
	assert.Equal(t, game.StateWon, out.State)
	assert.Equal(t, 41, c.Remaining(), "server remaining overrides the local clock")

	res := waitDone(t, c)
	assert.Equal(t, ReasonWon, res.Reason)
	assert.True(t, res.Won)
	assert.NoError(t, res.Err)

	fin := svc.finished()
	require.Len(t, fin, 1)
	assert.Equal(t, "won", fin[0].EndReason)
	assert.Equal(t, 2, fin[0].ClientGuessesUsed)
	assert.Equal(t, 19, fin[0].ClientTimeTakenSec)

	_, err = c.Hint(ctx)
	require.ErrorIs(t, err, game.ErrState, "hint is disabled after the session ends")
}

func TestControllerAttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{answer: "crane"}
	c := newController(svc)
	t.Cleanup(c.Stop)

	_, err := c.Start(ctx, "en", 60)
	require.NoError(t, err)
	for i := 0; i < game.MaxAttempts; i++ {
		_, err := c.SubmitWord(ctx, "pilot")
		require.NoError(t, err)
	}
	res := waitDone(t, c)
	assert.Equal(t, ReasonAttempts, res.Reason)
	assert.False(t, res.Won)
	assert.Equal(t, game.StateLost, c.Session().State())
	assert.Len(t, svc.finished(), 1)
}

func TestControllerTimeout(t *testing.T) {
	svc := &fakeService{answer: "crane"}
	c := newController(svc, WithTick(time.Millisecond), WithCountdown(2))
	t.Cleanup(c.Stop)

	_, err := c.Start(context.Background(), "en", 3)
	require.NoError(t, err)

	res := waitDone(t, c)
	assert.Equal(t, ReasonTimeout, res.Reason)
	assert.Equal(t, game.StateLost, c.Session().State())
	assert.Zero(t, c.Remaining())
	assert.Zero(t, c.PreCountdown())

	fin := svc.finished()
	require.Len(t, fin, 1)
	assert.Equal(t, "timeout", fin[0].EndReason)
	assert.Equal(t, 3, fin[0].ClientTimeTakenSec)

	_, err = c.SubmitWord(context.Background(), "crane")
	require.Error(t, err)
}

func TestControllerPreCountdownDoesNotBlockInput(t *testing.T) {
	svc := &fakeService{answer: "crane"}
	c := newController(svc, WithCountdown(3))
	t.Cleanup(c.Stop)

	_, err := c.Start(context.Background(), "en", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, c.PreCountdown())
	assert.True(t, c.Session().Input('c'))
	assert.Equal(t, 30, c.Remaining())
}

func TestControllerHintCostsTime(t *testing.T) {
	svc := &fakeService{answer: "crane"}
	c := newController(svc)
	t.Cleanup(c.Stop)

	_, err := c.Start(context.Background(), "en", 90)
	require.NoError(t, err)

	def, err := c.Hint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A large wading bird.", def)
	assert.Equal(t, 80, c.Remaining())
}

func TestControllerClampsLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"too long", 9, game.MaxLength},
		{"too short", 2, game.MinLength},
		{"in range", 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(&fakeService{answer: "crane", length: tt.length})
			t.Cleanup(c.Stop)
			st, err := c.Start(context.Background(), "en", 60)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Length)
			assert.Equal(t, tt.want, c.Session().Length())
		})
	}
}

func TestControllerStartFailure(t *testing.T) {
	c := newController(&fakeService{startErr: game.ErrNetwork})
	t.Cleanup(c.Stop)

	_, err := c.Start(context.Background(), "en", 60)
	require.ErrorIs(t, err, game.ErrNetwork)
	snap := c.Session().Snapshot()
	assert.Equal(t, game.StateError, snap.State)
	assert.Equal(t, MsgStartFailed, snap.Message)
}

func TestControllerStopHaltsClock(t *testing.T) {
	svc := &fakeService{answer: "crane"}
	c := newController(svc, WithTick(time.Millisecond))

	_, err := c.Start(context.Background(), "en", 600)
	require.NoError(t, err)
	c.Stop()
	left := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, left, c.Remaining())
	assert.Empty(t, svc.finished(), "stop does not finish the session")

	_, err = c.SubmitWord(context.Background(), "crane")
	require.Error(t, err)
}
