// internal/httpserver/routes_word.go
//
// Daily word API under /api/v1/word:
//   - GET  /today       → puzzle metadata (answer only when ExposeAnswer)
//   - POST /validate    → feedback for one guess against the day's answer
//   - GET  /definition  → glossary definition
//   - GET  /synonym     → glossary synonym
//   - POST /submit      → store the attempt (authenticated players only)
//   - GET  /myresult    → the caller's stored attempt
//
// The answer for a date is HMAC(salt, date) over the 5-letter list, so
// nothing but finished attempts is stored.
package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ST10258766/Wordleandroidclient/internal/daily"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/remote"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

func (s *Server) mountWord(r chi.Router) {
	r.Get("/today", s.handleToday)
	r.Post("/validate", s.handleValidate)
	r.Get("/definition", s.handleGlossary(func(e words.Entry) remote.WordInfo {
		return remote.WordInfo{Word: e.Word, Definition: e.Definition}
	}))
	r.Get("/synonym", s.handleGlossary(func(e words.Entry) remote.WordInfo {
		return remote.WordInfo{Word: e.Word, Synonym: e.Synonym}
	}))
	r.Post("/submit", s.handleSubmit)
	r.With(s.requireAuth()).Get("/myresult", s.handleMyResult)
}

// answerFor resolves the date key (empty = today) and the day's answer.
func (s *Server) answerFor(date, lang string) (string, string, error) {
	day := s.now()
	if date != "" {
		t, err := daily.ParseDateKey(date)
		if err != nil {
			return "", "", err
		}
		day = t
	}
	answer, err := daily.Answer(day, s.cfg.DailySalt, lang)
	return daily.DateKey(day), answer, err
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r.URL.Query().Get("lang"))
	date, answer, err := s.answerFor("", lang)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entry, _ := words.Lookup(answer)
	out := remote.Today{
		Date:          date,
		Lang:          lang,
		Mode:          "daily",
		Length:        daily.Length,
		HasDefinition: entry.Definition != "",
		HasSynonym:    entry.Synonym != "",
	}
	if s.cfg.ExposeAnswer {
		out.Answer = answer
	}
	writeJSON(w, http.StatusOK, out)
}

// scoreGuess checks length and dictionary membership, then scores.
func scoreGuess(guess, answer string) ([]game.Mark, error) {
	guess = game.Normalize(guess)
	if len(guess) != len(answer) {
		return nil, fmt.Errorf("%w: guess must be %d letters", game.ErrInvalidInput, len(answer))
	}
	if !words.IsAllowed(guess) {
		return nil, errNotAWord
	}
	return game.Score(guess, answer)
}

var errNotAWord = errors.New("not in word list")

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req remote.ValidateRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	_, answer, err := s.answerFor(req.Date, langOf(req.Lang))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	marks, err := scoreGuess(req.Guess, answer)
	if errors.Is(err, errNotAWord) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remote.ValidateResponse{Feedback: marks})
}

func (s *Server) handleGlossary(view func(words.Entry) remote.WordInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		word := game.Normalize(r.URL.Query().Get("word"))
		if word == "" {
			writeError(w, http.StatusBadRequest, "word is required")
			return
		}
		e, ok := words.Lookup(word)
		out := view(e)
		if !ok || out.Definition == "" && out.Synonym == "" {
			writeError(w, http.StatusNotFound, "no entry for "+word)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleSubmit recomputes feedback server-side. Guests get the answer back
// but nothing is stored. The answer is only revealed once the attempt is
// finished.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req remote.Submission
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(req.Guesses) == 0 || len(req.Guesses) > game.MaxAttempts {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("1-%d guesses required", game.MaxAttempts))
		return
	}
	lang := langOf(req.Lang)
	date, answer, err := s.answerFor(req.Date, lang)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res := daily.Result{Date: date, Lang: lang, Answer: answer, UpdatedAt: s.now()}
	for _, g := range req.Guesses {
		marks, err := game.Score(g, answer)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		res.Guesses = append(res.Guesses, game.Normalize(g))
		res.Feedback = append(res.Feedback, marks)
		res.Won = game.AllCorrect(marks)
		if res.Won {
			break
		}
	}

	if me := userFrom(r.Context()); me != nil {
		res.UserID = me.ID
		if err := s.results.SaveResult(r.Context(), res); err != nil {
			s.fail(w, r, err)
			return
		}
		s.logger.Info().Str("user", me.ID).Str("date", date).Str("lang", lang).Bool("won", res.Won).Int("guesses", len(res.Guesses)).Msg("result stored")
	}

	out := remote.SubmitResult{}
	if res.Won || len(res.Guesses) == game.MaxAttempts {
		out.Answer = answer
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMyResult(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	q := r.URL.Query()
	lang := langOf(q.Get("lang"))
	date := q.Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := daily.ParseDateKey(date); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.results.Result(r.Context(), me.ID, date, lang)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := remote.MyResult{
		Guesses:      res.Guesses,
		FeedbackRows: res.Feedback,
		Won:          res.Won,
	}
	if res.Won || len(res.Guesses) >= game.MaxAttempts {
		out.Answer = res.Answer
	}
	writeJSON(w, http.StatusOK, out)
}
