package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/config"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

func TestIdentity(t *testing.T) {
	id, err := identity(config.ClientConfig{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	cfg := config.ClientConfig{DataPath: filepath.Join(t.TempDir(), "wordrush.db")}
	first, err := identity(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "device-"))

	second, err := identity(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPromptSkipsBlankLines(t *testing.T) {
	var out strings.Builder
	a := &app{out: &syncWriter{w: &out}, lines: readLines(strings.NewReader("\n  \ncrane\n"))}

	line, ok := a.prompt(context.Background(), "> ")
	require.True(t, ok)
	assert.Equal(t, "crane", line)
	assert.Equal(t, "> > > ", out.String())

	_, ok = a.prompt(context.Background(), "> ")
	assert.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Not enough letters.", userMessage(game.ErrNotEnoughLetters))
	assert.Equal(t, "Not in word list.", userMessage(game.ErrInvalidInput))
}
