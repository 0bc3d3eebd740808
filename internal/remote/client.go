// internal/remote/client.go
//
// JSON-over-HTTP client for the word service.
//
// Responsibilities:
//   - Word API: today, validate, definition, synonym, submit, myresult.
//   - Speedle API: start, validate, hint, finish, leaderboard.
//   - Auth: signup/login; the returned token is sent as a bearer header.
//
// Errors:
//   - 400/401/403/422 → game.ErrInvalidInput
//   - 404             → game.ErrNotFound
//   - 409             → game.ErrConflict
//   - anything else, and transport failures → game.ErrNetwork
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// DefaultTimeout bounds every request; a slow server is a network error.
const DefaultTimeout = 10 * time.Second

type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger

	mu    sync.RWMutex
	token string
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }
func WithToken(tok string) ClientOption          { return func(c *Client) { c.token = tok } }
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL is the service root the client was built with.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a bearer token is configured.
func (c *Client) Authenticated() bool { return c.Token() != "" }

func statusErr(code int) error {
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return game.ErrInvalidInput
	case http.StatusNotFound:
		return game.ErrNotFound
	case http.StatusConflict:
		return game.ErrConflict
	default:
		return game.ErrNetwork
	}
}

// do sends one request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w: %w", method, path, game.ErrInvalidInput, err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, game.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, game.ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var er ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if json.Unmarshal(raw, &er) != nil || er.Error == "" {
			er.Error = strings.TrimSpace(string(raw))
		}
		c.logger.Debug().Str("method", method).Str("path", path).Int("status", res.StatusCode).Str("error", er.Error).Msg("remote call rejected")
		return fmt.Errorf("%s %s: %w: %d %s", method, path, statusErr(res.StatusCode), res.StatusCode, er.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w: %w", method, path, game.ErrNetwork, err)
	}
	return nil
}

// ---------------------------------- word ------------------------------------

func (c *Client) Today(ctx context.Context, lang string) (Today, error) {
	var out Today
	err := c.do(ctx, http.MethodGet, "/api/v1/word/today", url.Values{"lang": {lang}}, nil, &out)
	return out, err
}

func (c *Client) Validate(ctx context.Context, guess, lang, date string) ([]game.Mark, error) {
	var out ValidateResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/word/validate", nil,
		ValidateRequest{Guess: guess, Lang: lang, Date: date}, &out)
	return out.Feedback, err
}

func (c *Client) Definition(ctx context.Context, word, lang string) (string, error) {
	var out WordInfo
	err := c.do(ctx, http.MethodGet, "/api/v1/word/definition", url.Values{"word": {word}, "lang": {lang}}, nil, &out)
	return out.Definition, err
}

func (c *Client) Synonym(ctx context.Context, word, lang string) (string, error) {
	var out WordInfo
	err := c.do(ctx, http.MethodGet, "/api/v1/word/synonym", url.Values{"word": {word}, "lang": {lang}}, nil, &out)
	return out.Synonym, err
}

func (c *Client) Submit(ctx context.Context, s Submission) (SubmitResult, error) {
	var out SubmitResult
	err := c.do(ctx, http.MethodPost, "/api/v1/word/submit", nil, s, &out)
	return out, err
}

func (c *Client) MyResult(ctx context.Context, date, lang string) (MyResult, error) {
	var out MyResult
	err := c.do(ctx, http.MethodGet, "/api/v1/word/myresult", url.Values{"date": {date}, "lang": {lang}}, nil, &out)
	return out, err
}

// --------------------------------- speedle ----------------------------------

func (c *Client) Start(ctx context.Context, lang string, durationSec int) (SpeedleStart, error) {
	var out SpeedleStart
	err := c.do(ctx, http.MethodPost, "/api/v1/speedle/start", nil,
		SpeedleStartRequest{Lang: lang, Duration: durationSec}, &out)
	return out, err
}

// speedleClient adapts Client to the Speedle interface, whose Validate
// signature differs from the word API's.
type speedleClient struct{ *Client }

// Speedle returns the timed-session view of the client.
func (c *Client) Speedle() Speedle { return speedleClient{c} }

func (s speedleClient) Validate(ctx context.Context, sessionID, guess string) (SpeedleGuess, error) {
	var out SpeedleGuess
	err := s.do(ctx, http.MethodPost, "/api/v1/speedle/validate", nil,
		SpeedleGuessRequest{SessionID: sessionID, Guess: guess}, &out)
	return out, err
}

func (c *Client) Hint(ctx context.Context, sessionID string) (SpeedleHint, error) {
	var out SpeedleHint
	err := c.do(ctx, http.MethodPost, "/api/v1/speedle/hint", nil, SpeedleHintRequest{SessionID: sessionID}, &out)
	return out, err
}

func (c *Client) Finish(ctx context.Context, req SpeedleFinishRequest) (SpeedleResult, error) {
	var out SpeedleResult
	err := c.do(ctx, http.MethodPost, "/api/v1/speedle/finish", nil, req, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, date string, duration, limit int) ([]LeaderboardRow, error) {
	q := url.Values{"date": {date}, "duration": {strconv.Itoa(duration)}, "limit": {strconv.Itoa(limit)}}
	var out []LeaderboardRow
	err := c.do(ctx, http.MethodGet, "/api/v1/speedle/leaderboard", q, nil, &out)
	return out, err
}

// ---------------------------------- auth ------------------------------------

// Signup creates an account and stores the returned token.
func (c *Client) Signup(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.auth(ctx, "/auth/signup", username, password)
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.auth(ctx, "/auth/login", username, password)
}

func (c *Client) auth(ctx context.Context, path, username, password string) (AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, Credentials{Username: username, Password: password}, &out); err != nil {
		return AuthResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Health pings the service's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
