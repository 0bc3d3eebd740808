package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/netcheck"
	"github.com/ST10258766/Wordleandroidclient/internal/progress"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

type fakeWords struct {
	mu sync.Mutex

	today    remote.Today
	todayErr error
	my       map[string]remote.MyResult
	myErr    error
	failFor  map[string]bool
	submits  []remote.Submission
	defs     map[string]string
	syns     map[string]string
	calls    map[string]int
}

func newFakeWords() *fakeWords {
	return &fakeWords{
		my:      map[string]remote.MyResult{},
		failFor: map[string]bool{},
		defs:    map[string]string{},
		syns:    map[string]string{},
		calls:   map[string]int{},
	}
}

func (f *fakeWords) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeWords) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeWords) Today(ctx context.Context, lang string) (remote.Today, error) {
	f.hit("today")
	return f.today, f.todayErr
}

func (f *fakeWords) Validate(ctx context.Context, guess, lang, date string) ([]game.Mark, error) {
	f.hit("validate")
	return nil, errors.New("not used")
}

func (f *fakeWords) Submit(ctx context.Context, s remote.Submission) (remote.SubmitResult, error) {
	f.hit("submit")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[s.Date] {
		return remote.SubmitResult{}, game.ErrNetwork
	}
	f.submits = append(f.submits, s)
	return remote.SubmitResult{Answer: "erase"}, nil
}

func (f *fakeWords) MyResult(ctx context.Context, date, lang string) (remote.MyResult, error) {
	f.hit("myresult")
	if f.myErr != nil {
		return remote.MyResult{}, f.myErr
	}
	r, ok := f.my[date]
	if !ok {
		return remote.MyResult{}, game.ErrNotFound
	}
	return r, nil
}

func (f *fakeWords) Definition(ctx context.Context, word, lang string) (string, error) {
	f.hit("definition")
	if d, ok := f.defs[word]; ok {
		return d, nil
	}
	return "", game.ErrNotFound
}

func (f *fakeWords) Synonym(ctx context.Context, word, lang string) (string, error) {
	f.hit("synonym")
	if s, ok := f.syns[word]; ok {
		return s, nil
	}
	return "", game.ErrNetwork
}

type authed bool

func (a authed) Authenticated() bool { return bool(a) }

var day = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *progress.Store {
	t.Helper()
	s, err := progress.Open(filepath.Join(t.TempDir(), "p.db"),
		progress.WithLogger(zerolog.Nop()),
		progress.WithClock(func() time.Time { return day }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newEngine(t *testing.T, store *progress.Store, w *fakeWords, net netcheck.Checker, auth bool) *Engine {
	return New(store, w, net,
		WithAuth(authed(auth)),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return day }))
}
