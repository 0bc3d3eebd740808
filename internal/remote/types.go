// internal/remote/types.go
//
// Wire types and collaborator interfaces for the remote word service.
// The reference backend (internal/httpserver) encodes the same types, so the
// client and server cannot drift apart.
package remote

import (
	"context"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// Today is the puzzle metadata for one day and language.
// Answer is only filled by services that allow offline play.
type Today struct {
	Date          string `json:"date"`
	Lang          string `json:"lang"`
	Mode          string `json:"mode,omitempty"`
	Length        int    `json:"length"`
	HasDefinition bool   `json:"hasDefinition"`
	HasSynonym    bool   `json:"hasSynonym"`
	Answer        string `json:"answer,omitempty"`
}

type ValidateRequest struct {
	Guess string `json:"guess"`
	Lang  string `json:"lang"`
	Date  string `json:"date"`
}

type ValidateResponse struct {
	Feedback []game.Mark `json:"feedback"`
}

// Submission is the full attempt history of one puzzle.
type Submission struct {
	Date     string        `json:"date"`
	Lang     string        `json:"lang"`
	Guesses  []string      `json:"guesses"`
	Feedback [][]game.Mark `json:"feedback,omitempty"`
	Won      bool          `json:"won"`
}

type SubmitResult struct {
	Answer string `json:"answer"`
}

// MyResult is a stored result for the authenticated player.
type MyResult struct {
	Guesses      []string      `json:"guesses"`
	FeedbackRows [][]game.Mark `json:"feedbackRows"`
	Won          bool          `json:"won"`
	Answer       string        `json:"answer"`
}

type WordInfo struct {
	Word       string `json:"word"`
	Definition string `json:"definition,omitempty"`
	Synonym    string `json:"synonym,omitempty"`
}

type SpeedleStartRequest struct {
	Lang     string `json:"lang"`
	Duration int    `json:"duration"`
}

type SpeedleStart struct {
	SessionID string `json:"sessionId"`
	WordID    string `json:"wordId"`
	Length    int    `json:"length"`
	Duration  int    `json:"duration"`
}

type SpeedleGuessRequest struct {
	SessionID string `json:"sessionId"`
	Guess     string `json:"guess"`
}

type SpeedleGuess struct {
	Feedback     []game.Mark `json:"feedback"`
	Won          bool        `json:"won"`
	GuessesUsed  int         `json:"guessesUsed"`
	RemainingSec int         `json:"remainingSec"`
}

type SpeedleHintRequest struct {
	SessionID string `json:"sessionId"`
}

type SpeedleHint struct {
	Definition   string `json:"definition"`
	RemainingSec int    `json:"remainingSec"`
}

type SpeedleFinishRequest struct {
	SessionID          string `json:"sessionId"`
	EndReason          string `json:"endReason"`
	ClientGuessesUsed  int    `json:"clientGuessesUsed"`
	ClientTimeTakenSec int    `json:"clientTimeTakenSec"`
}

type SpeedleResult struct {
	Won                 bool   `json:"won"`
	Score               int    `json:"score"`
	Answer              string `json:"answer"`
	Definition          string `json:"definition,omitempty"`
	Synonym             string `json:"synonym,omitempty"`
	TimeRemainingSec    int    `json:"timeRemainingSec"`
	GuessesUsed         int    `json:"guessesUsed"`
	LeaderboardPosition int    `json:"leaderboardPosition"`
}

type LeaderboardRow struct {
	UserID           string `json:"userId"`
	Username         string `json:"username,omitempty"`
	Score            int    `json:"score"`
	GuessesUsed      int    `json:"guessesUsed"`
	TimeRemainingSec int    `json:"timeRemainingSec"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Puzzles supplies daily metadata.
type Puzzles interface {
	Today(ctx context.Context, lang string) (Today, error)
}

// Validator scores a guess online.
type Validator interface {
	Validate(ctx context.Context, guess, lang, date string) ([]game.Mark, error)
}

// Results stores and reads completed attempts.
type Results interface {
	Submit(ctx context.Context, s Submission) (SubmitResult, error)
	MyResult(ctx context.Context, date, lang string) (MyResult, error)
}

// Glossary is the best-effort definition/synonym lookup.
type Glossary interface {
	Definition(ctx context.Context, word, lang string) (string, error)
	Synonym(ctx context.Context, word, lang string) (string, error)
}

// Speedle is the timed session service.
type Speedle interface {
	Start(ctx context.Context, lang string, durationSec int) (SpeedleStart, error)
	Validate(ctx context.Context, sessionID, guess string) (SpeedleGuess, error)
	Hint(ctx context.Context, sessionID string) (SpeedleHint, error)
	Finish(ctx context.Context, req SpeedleFinishRequest) (SpeedleResult, error)
	Leaderboard(ctx context.Context, date string, duration, limit int) ([]LeaderboardRow, error)
}

// Words bundles everything the daily mode needs from the word service.
type Words interface {
	Puzzles
	Validator
	Results
	Glossary
}
