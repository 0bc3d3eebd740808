// Package netcheck answers "is there a usable network path right now"
// without blocking: a background probe refreshes an atomic flag and Online
// only reads it.
package netcheck

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Checker is consulted before every online/offline decision.
type Checker interface {
	Online() bool
}

// Fixed is a Checker with a constant answer.
type Fixed bool

func (f Fixed) Online() bool { return bool(f) }

// Toggle is a Checker whose answer can be flipped at runtime.
type Toggle struct{ v atomic.Bool }

func NewToggle(online bool) *Toggle {
	t := &Toggle{}
	t.v.Store(online)
	return t
}

func (t *Toggle) Online() bool    { return t.v.Load() }
func (t *Toggle) Set(online bool) { t.v.Store(online) }

// ProbeFunc reports reachability; a nil error means online.
type ProbeFunc func(ctx context.Context) error

// Monitor probes periodically and caches the last answer.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	online atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewMonitor runs one probe synchronously so the first answer is real, then
// keeps probing every interval until Stop.
func NewMonitor(ctx context.Context, probe ProbeFunc, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &Monitor{
		probe:    probe,
		interval: interval,
		timeout:  min(interval, 3*time.Second),
		logger:   log.Logger,
		done:     make(chan struct{}),
	}
	m.check(ctx)

	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
	return m
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.probe(pctx)
	now := err == nil
	if prev := m.online.Swap(now); prev != now {
		m.logger.Info().Bool("online", now).Err(err).Msg("connectivity changed")
	}
}

// Online returns the last probe result.
func (m *Monitor) Online() bool { return m.online.Load() }

// Stop ends the background probe and waits for it to exit.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		m.cancel()
		<-m.done
	})
}
