package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/config"
	"github.com/ST10258766/Wordleandroidclient/internal/netcheck"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/reconcile"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

// app holds what every command shares.
type app struct {
	cfg    *config.Config
	out    *syncWriter
	lines  <-chan string
	userID string

	store  *progress.Store
	client *remote.Client
	net    *netcheck.Monitor
	engine *reconcile.Engine
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*app, error) {
	if err := words.Init(); err != nil {
		return nil, err
	}
	userID, err := identity(cfg.Client)
	if err != nil {
		return nil, err
	}
	st, err := progress.Open(cfg.Client.DataPath, progress.WithLogger(log.Logger))
	if err != nil {
		return nil, err
	}
	client := remote.NewClient(cfg.Client.APIBaseURL,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.Client.HTTPTimeout}),
		remote.WithToken(cfg.Client.AuthToken),
	)
	mon := netcheck.NewMonitor(ctx, client.Health, cfg.Client.NetProbeInterval)
	engine := reconcile.New(st, client, mon, reconcile.WithAuth(client))

	return &app{
		cfg:    cfg,
		out:    &syncWriter{w: out},
		lines:  readLines(in),
		userID: userID,
		store:  st,
		client: client,
		net:    mon,
		engine: engine,
	}, nil
}

func (a *app) Close() {
	a.net.Stop()
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("close progress store")
	}
}

func (a *app) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }

// prompt prints p and waits for the next non-empty line. ok is false at EOF
// or when ctx ends.
func (a *app) prompt(ctx context.Context, p string) (string, bool) {
	for {
		a.printf("%s", p)
		select {
		case <-ctx.Done():
			return "", false
		case line, ok := <-a.lines:
			if !ok {
				return "", false
			}
			if line = strings.TrimSpace(line); line != "" {
				return line, true
			}
		}
	}
}

// identity is the configured USER_ID, or a device id kept next to the
// progress database.
func identity(cfg config.ClientConfig) (string, error) {
	if cfg.UserID != "" {
		return cfg.UserID, nil
	}
	path := cfg.DataPath + ".device"
	raw, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}
	id := "device-" + uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}

// readLines feeds stdin lines to a channel so commands can select on it
// alongside timers.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// syncWriter serialises output from background callbacks and the prompt.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
