// internal/httpserver/auth.go
//
// Accounts and tokens: signup/login with bcrypt-hashed passwords, HS256 JWTs
// carried as a bearer header (or cookie), and the optional/required auth
// middleware.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ST10258766/Wordleandroidclient/internal/daily"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
)

const cookieName = "wordrush_token"

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

type authUser struct {
	ID       string
	Username string
}

func userFrom(ctx context.Context) *authUser {
	me, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return me
}

func (s *Server) mountAuth() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me := userFrom(r.Context())
		writeJSON(w, http.StatusOK, remote.AuthUser{ID: me.ID, Username: me.Username})
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body remote.Credentials
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	username := strings.TrimSpace(body.Username)
	if err := validateSignup(username, body.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	h, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u := daily.User{ID: uuid.NewString(), Username: username, PasswordHash: string(h), CreatedAt: s.now()}
	if err := s.results.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, game.ErrConflict) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		s.fail(w, r, err)
		return
	}
	s.respondAuth(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body remote.Credentials
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.results.UserByName(r.Context(), strings.TrimSpace(body.Username))
	if err != nil && !errors.Is(err, game.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	s.respondAuth(w, r, u)
}

func (s *Server) respondAuth(w http.ResponseWriter, r *http.Request, u daily.User) {
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
	writeJSON(w, http.StatusOK, remote.AuthResponse{
		Token: tok,
		User:  remote.AuthUser{ID: u.ID, Username: u.Username},
	})
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", game.ErrInvalidInput)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", game.ErrInvalidInput)
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", game.ErrInvalidInput)
	}
	return nil
}

// signJWT creates an HS256 JWT with id/username that expires after
// JWTExpiresDays.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// parseJWT verifies tok and returns the user it names, which must still exist.
func (s *Server) parseJWT(ctx context.Context, tok string) (*authUser, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, errors.New("token without id")
	}
	u, err := s.results.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &authUser{ID: u.ID, Username: u.Username}, nil
}

// bearerOrCookie extracts a bearer token from the Authorization header or
// the auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// withOptionalAuth decorates requests with the user if a valid JWT is
// present. It never rejects.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				if me, err := s.parseJWT(r.Context(), tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
				} else {
					s.logger.Debug().Err(err).Msg("ignoring invalid token")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth rejects requests without a valid JWT.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userFrom(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			tok := bearerOrCookie(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			me, err := s.parseJWT(r.Context(), tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
		})
	}
}
