// internal/httpserver/routes_speedle.go
//
// Speedle API under /api/v1/speedle. The server owns the clock: remaining
// time is duration - elapsed - hint penalties, and every reply carries it.
//
//   - POST /start        → new session with a random word
//   - POST /validate     → score one guess (409 once finished or out of time)
//   - POST /hint         → definition, costs HintPenalty
//   - POST /finish       → idempotent; scores and ranks authenticated runs
//   - GET  /leaderboard  → best runs for (date, duration)
package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ST10258766/Wordleandroidclient/internal/daily"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
	"github.com/ST10258766/Wordleandroidclient/internal/store"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

const (
	speedleLength   = 5
	defaultDuration = 90
	minDuration     = 15
	maxDuration     = 600
	maxBoard        = 100
)

func (s *Server) mountSpeedle(r chi.Router) {
	r.Post("/start", s.handleSpeedleStart)
	r.Post("/validate", s.handleSpeedleValidate)
	r.Post("/hint", s.handleSpeedleHint)
	r.Post("/finish", s.handleSpeedleFinish)
	r.Get("/leaderboard", s.handleLeaderboard)
}

func seconds(d time.Duration) int { return int(d / time.Second) }

// Score is 0 for a loss, otherwise 100 plus 10 per second left plus 25 per
// unused attempt.
func Score(won bool, remainingSec, guessesUsed int) int {
	if !won {
		return 0
	}
	return 100 + remainingSec*10 + max(0, game.MaxAttempts-guessesUsed)*25
}

// playable rejects sessions that can no longer take guesses or hints.
func playable(sess *store.Session, now time.Time) error {
	switch {
	case sess.Finished:
		return fmt.Errorf("%w: session finished", game.ErrConflict)
	case sess.Remaining(now) <= 0:
		return fmt.Errorf("%w: time is up", game.ErrConflict)
	case sess.Won || len(sess.Guesses) >= game.MaxAttempts:
		return fmt.Errorf("%w: no attempts left", game.ErrConflict)
	}
	return nil
}

func (s *Server) handleSpeedleStart(w http.ResponseWriter, r *http.Request) {
	var req remote.SpeedleStartRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	dur := req.Duration
	if dur == 0 {
		dur = defaultDuration
	}
	if dur < minDuration || dur > maxDuration {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("duration must be %d-%d seconds", minDuration, maxDuration))
		return
	}
	lang := langOf(req.Lang)
	if !words.HasLength(lang, speedleLength) {
		writeError(w, http.StatusNotFound, "no words for "+lang)
		return
	}
	word := words.RandomAnswer(lang, speedleLength)

	sess := store.Session{
		ID:        uuid.NewString(),
		Lang:      lang,
		Word:      word,
		Duration:  time.Duration(dur) * time.Second,
		StartedAt: s.now(),
	}
	if me := userFrom(r.Context()); me != nil {
		sess.UserID, sess.Username = me.ID, me.Username
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug().Str("session", sess.ID).Int("duration", dur).Msg("speedle started")
	writeJSON(w, http.StatusOK, remote.SpeedleStart{
		SessionID: sess.ID,
		WordID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(lang+":"+word)).String(),
		Length:    len(word),
		Duration:  dur,
	})
}

func (s *Server) handleSpeedleValidate(w http.ResponseWriter, r *http.Request) {
	var req remote.SpeedleGuessRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	var marks []game.Mark
	sess, err := s.sessions.Update(r.Context(), req.SessionID, func(sess *store.Session) error {
		if err := playable(sess, now); err != nil {
			return err
		}
		m, err := scoreGuess(req.Guess, sess.Word)
		if err != nil {
			return err
		}
		marks = m
		sess.Guesses = append(sess.Guesses, game.Normalize(req.Guess))
		sess.Won = game.AllCorrect(m)
		return nil
	})
	if errors.Is(err, errNotAWord) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remote.SpeedleGuess{
		Feedback:     marks,
		Won:          sess.Won,
		GuessesUsed:  len(sess.Guesses),
		RemainingSec: seconds(sess.Remaining(now)),
	})
}

func (s *Server) handleSpeedleHint(w http.ResponseWriter, r *http.Request) {
	var req remote.SpeedleHintRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	sess, err := s.sessions.Update(r.Context(), req.SessionID, func(sess *store.Session) error {
		if err := playable(sess, now); err != nil {
			return err
		}
		sess.Penalty += s.cfg.HintPenalty
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entry, _ := words.Lookup(sess.Word)
	writeJSON(w, http.StatusOK, remote.SpeedleHint{
		Definition:   entry.Definition,
		RemainingSec: seconds(sess.Remaining(now)),
	})
}

// handleSpeedleFinish closes the session once; later calls replay the same
// result. The outcome comes from the server's own record, not the client's.
func (s *Server) handleSpeedleFinish(w http.ResponseWriter, r *http.Request) {
	var req remote.SpeedleFinishRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	first := false
	sess, err := s.sessions.Update(r.Context(), req.SessionID, func(sess *store.Session) error {
		if sess.Finished {
			return nil
		}
		first = true
		sess.Finished = true
		sess.EndedAt = now
		sess.Score = Score(sess.Won, seconds(sess.Remaining(now)), len(sess.Guesses))
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	remaining := seconds(sess.Remaining(now))

	if first {
		s.logger.Info().Str("session", sess.ID).Str("reason", req.EndReason).Bool("won", sess.Won).
			Int("score", sess.Score).Int("client_guesses", req.ClientGuessesUsed).Int("client_time", req.ClientTimeTakenSec).
			Msg("speedle finished")
		if sess.UserID != "" {
			pos, err := s.results.SaveSpeedle(r.Context(), daily.SpeedleRun{
				SessionID:     sess.ID,
				UserID:        sess.UserID,
				Username:      sess.Username,
				Date:          daily.DateKey(sess.StartedAt),
				Duration:      seconds(sess.Duration),
				Won:           sess.Won,
				Score:         sess.Score,
				GuessesUsed:   len(sess.Guesses),
				TimeRemaining: remaining,
				CreatedAt:     now,
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("session", sess.ID).Msg("leaderboard write failed")
			} else if sess, err = s.sessions.Update(r.Context(), sess.ID, func(x *store.Session) error {
				x.Position = pos
				return nil
			}); err != nil {
				s.fail(w, r, err)
				return
			}
		}
	}

	entry, _ := words.Lookup(sess.Word)
	writeJSON(w, http.StatusOK, remote.SpeedleResult{
		Won:                 sess.Won,
		Score:               sess.Score,
		Answer:              sess.Word,
		Definition:          entry.Definition,
		Synonym:             entry.Synonym,
		TimeRemainingSec:    remaining,
		GuessesUsed:         len(sess.Guesses),
		LeaderboardPosition: sess.Position,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := daily.ParseDateKey(date); err != nil {
		s.fail(w, r, err)
		return
	}
	duration := atoiOr(q.Get("duration"), defaultDuration)
	limit := min(max(atoiOr(q.Get("limit"), 10), 1), maxBoard)

	runs, err := s.results.Leaderboard(r.Context(), date, duration, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]remote.LeaderboardRow, 0, len(runs))
	for _, run := range runs {
		out = append(out, remote.LeaderboardRow{
			UserID:           run.UserID,
			Username:         run.Username,
			Score:            run.Score,
			GuessesUsed:      run.GuessesUsed,
			TimeRemainingSec: run.TimeRemaining,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
