package race

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

func TestNewMatchNeedsRoomCode(t *testing.T) {
	s, _ := newStore(t)
	_, err := NewMatch(s, "", host, "crane")
	require.ErrorIs(t, err, ErrMissingRoomCode)
}

func TestMatchRace(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	room, err := s.CreateRoom(ctx, "RACE", host, "crate")
	require.NoError(t, err)
	room, err = s.JoinRoom(ctx, room.Code, guest)
	require.NoError(t, err)

	seen := make(chan Progress, 8)
	hostMatch, err := NewMatch(s, room.Code, host, room.Word, WithOpponentUpdates(func(p Progress) { seen <- p }))
	require.NoError(t, err)
	guestMatch, err := NewMatch(s, room.Code, guest, room.Word)
	require.NoError(t, err)
	hostMatch.Start(ctx)
	guestMatch.Start(ctx)
	t.Cleanup(hostMatch.Stop)
	t.Cleanup(guestMatch.Stop)

	_, ok := hostMatch.Opponent()
	assert.False(t, ok)

	out, err := guestMatch.SubmitWord(ctx, "slate")
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying, out.State)

	select {
	case p := <-seen:
		assert.Equal(t, guest.UID, p.UserID)
		assert.Equal(t, "slate", p.Guess)
		assert.Equal(t, 0, p.Row)
		assert.False(t, p.Won)
	case <-time.After(2 * time.Second):
		t.Fatal("host never saw the guest's move")
	}

	out, err = hostMatch.SubmitWord(ctx, "CRATE")
	require.NoError(t, err)
	assert.Equal(t, game.StateWon, out.State)

	require.Eventually(t, func() bool {
		p, ok := guestMatch.Opponent()
		return ok && p.Won
	}, 2*time.Second, 5*time.Millisecond)

	p, _ := hostMatch.Opponent()
	assert.Equal(t, "slate", p.Guess, "own moves are not reported as the opponent's")
}
