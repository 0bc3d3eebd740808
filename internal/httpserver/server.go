// internal/httpserver/server.go
//
// HTTP server for the reference word service.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Word API under /api/v1/word and Speedle API under /api/v1/speedle.
//   - Auth endpoints under /auth (signup/login issue a JWT).
//
// Notes:
//   - Every error body is {"error": "..."}; status codes follow the client's
//     mapping (400/401/422 invalid input, 404 missing, 409 conflict).
//   - Optional auth decorates requests with the user when a valid token is
//     present; guests can still play.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/config"
	"github.com/ST10258766/Wordleandroidclient/internal/daily"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
	"github.com/ST10258766/Wordleandroidclient/internal/store"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

// Server bundles the router, the results database and live Speedle sessions.
type Server struct {
	r        *chi.Mux
	cfg      config.ServerConfig
	results  *daily.Store
	sessions store.Sessions
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*Server)

func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }
func WithLogger(l zerolog.Logger) Option    { return func(s *Server) { s.logger = l } }

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.ServerConfig, results *daily.Store, sessions store.Sessions, opts ...Option) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		results:  results,
		sessions: sessions,
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, o := range opts {
		o(s)
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "wordrush",
			"endpoints": []string{"/health", "/auth/*", "/api/v1/word/*", "/api/v1/speedle/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		lists, allowed := words.Stats()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "lists": lists, "words": allowed})
	})

	s.mountAuth()
	s.r.Route("/api/v1", func(r chi.Router) {
		r.With(s.withOptionalAuth()).Route("/word", s.mountWord)
		r.With(s.withOptionalAuth()).Route("/speedle", s.mountSpeedle)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found: "+r.URL.Path)
	})
	return s
}

// Router exposes the router (useful for tests).
func (s *Server) Router() http.Handler { return s.r }

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	s.logger.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ----------------------------- middleware ----------------------------------

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, remote.ErrorResponse{Error: msg})
}

// fail maps an error from the game taxonomy to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrConflict), errors.Is(err, game.ErrState):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", chimw.GetReqID(r.Context())).Msg("request failed")
		writeError(w, status, "internal_error")
		return
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid_json", game.ErrInvalidInput)
	}
	return nil
}

func langOf(lang string) string {
	if lang == "" {
		return words.DefaultLang
	}
	return lang
}
