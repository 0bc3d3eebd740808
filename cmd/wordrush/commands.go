package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/ST10258766/Wordleandroidclient/internal/ai"
	"github.com/ST10258766/Wordleandroidclient/internal/game"
	"github.com/ST10258766/Wordleandroidclient/internal/play"
	"github.com/ST10258766/Wordleandroidclient/internal/race"
	"github.com/ST10258766/Wordleandroidclient/internal/reconcile"
	"github.com/ST10258766/Wordleandroidclient/internal/speedle"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNotEnoughLetters):
		return "Not enough letters."
	case errors.Is(err, game.ErrInvalidInput):
		return "Not in word list."
	case errors.Is(err, game.ErrState):
		return "Hold on..."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func runDaily(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := play.NewDaily(play.Deps{
		Store:  a.store,
		Words:  a.client,
		Net:    a.net,
		Engine: a.engine,
	}, a.userID, a.cfg.Client.Lang)
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Load(ctx)
	if err != nil {
		a.printf("%s\n", reconcile.FailureMessage(err))
		return nil
	}
	a.printf("Daily %s (%s), origin %s\n", d.Key().Date, d.Key().Lang, st.Origin)
	renderBoard(a.out, d.Session().Snapshot())

	for d.Session().State() == game.StatePlaying {
		line, ok := a.prompt(ctx, "> ")
		if !ok {
			return nil
		}
		res, err := d.SubmitWord(ctx, line)
		if err != nil {
			a.printf("%s\n", userMessage(err))
			continue
		}
		renderBoard(a.out, d.Session().Snapshot())
		if res.Offline {
			a.printf("(scored offline)\n")
		}
		if res.Summary != nil {
			printSummary(a, *res.Summary, res.Synced)
		}
	}
	if st.Terminal {
		a.printf("Already finished today.\n")
		if st.Summary != nil {
			printSummary(a, *st.Summary, true)
		}
	}
	return nil
}

func printSummary(a *app, s reconcile.Summary, synced bool) {
	if s.Won {
		a.printf("You got it: %s\n", strings.ToUpper(s.Word))
	} else {
		a.printf("The word was %s\n", strings.ToUpper(s.Word))
	}
	def, syn := s.Definition, s.Synonym
	if def == "" {
		def = "not available"
	}
	if syn == "" {
		syn = "not available"
	}
	a.printf("Definition: %s\nSynonym: %s\n", def, syn)
	if !synced {
		a.printf("Result saved locally; run `wordrush sync` when online.\n")
	}
}

func runSpeedle(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("speedle", flag.ContinueOnError)
	dur := fs.Int("duration", speedle.DefaultDuration, "session length in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := speedle.New(a.client.Speedle())
	defer c.Stop()

	st, err := c.Start(ctx, a.cfg.Client.Lang, *dur)
	if err != nil {
		a.printf("%s\n", speedle.MsgStartFailed)
		return err
	}
	a.printf("Speedle: %d letters, %ds. Type a word, or ? for a hint.\n", st.Length, st.Duration)

loop:
	for {
		a.printf("[%3ds] > ", c.Remaining())
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			break loop
		case line, ok := <-a.lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == "?":
				def, err := c.Hint(ctx)
				if err != nil {
					a.printf("%s\n", userMessage(err))
					continue
				}
				a.printf("Hint: %s\n", def)
			default:
				if _, err := c.SubmitWord(ctx, line); err != nil {
					a.printf("%s\n", userMessage(err))
					continue
				}
				renderBoard(a.out, c.Session().Snapshot())
			}
		}
	}

	res, _ := c.Result()
	a.printf("\n%s: %s after %d guesses, score %d", res.Reason, strings.ToUpper(res.Answer), res.GuessesUsed, res.Score)
	if res.LeaderboardPosition > 0 {
		a.printf(" (#%d today)", res.LeaderboardPosition)
	}
	a.printf("\n")
	if res.Definition != "" {
		a.printf("Definition: %s\n", res.Definition)
	}
	return nil
}

func runAI(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ai", flag.ContinueOnError)
	diffFlag := fs.String("difficulty", "medium", "easy, medium or hard")
	length := fs.Int("length", 5, "word length (3-7)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	diff, err := ai.ParseDifficulty(*diffFlag)
	if err != nil {
		return err
	}
	lang := a.cfg.Client.Lang
	if !words.HasLength(lang, *length) {
		return fmt.Errorf("%w: no %d-letter words", game.ErrInvalidInput, *length)
	}
	target := words.RandomAnswer(lang, *length)

	s, err := game.NewSession(*length)
	if err != nil {
		return err
	}
	if err := s.Begin(); err != nil {
		return err
	}
	defer s.Close()

	opp, err := ai.New(ai.Config{
		Difficulty: diff,
		Target:     target,
		Pool:       words.List(lang, *length),
		PlayerRow:  s.Row,
		OnGuess: func(m ai.Move) {
			a.printf("\nAI #%d %s\n", m.Row+1, renderMarks(m.Marks))
		},
		OnWin: func(rows int) {
			a.printf("AI solved it in %d.\n", rows)
		},
	})
	if err != nil {
		return err
	}
	opp.Start(ctx)
	defer opp.Stop()

	a.printf("You vs %s AI, %d letters.\n", diff, *length)
	for s.State() == game.StatePlaying && !opp.Won() {
		line, ok := a.prompt(ctx, "> ")
		if !ok {
			return nil
		}
		if err := s.Type(line); err != nil {
			a.printf("%s\n", userMessage(err))
			continue
		}
		guess, row, err := s.PendingGuess()
		if err != nil {
			a.printf("%s\n", userMessage(err))
			continue
		}
		if !words.IsAllowed(guess) {
			a.printf("Not in word list.\n")
			continue
		}
		if _, err := s.Apply(row, guess, game.MustScore(guess, target)); err != nil {
			return err
		}
		renderBoard(a.out, s.Snapshot())
	}

	switch {
	case s.State() == game.StateWon:
		a.printf("You win!\n")
	case opp.Won():
		a.printf("The AI wins. The word was %s.\n", strings.ToUpper(target))
	default:
		a.printf("Out of attempts. The word was %s.\n", strings.ToUpper(target))
	}
	return nil
}

func runRace(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("race", flag.ContinueOnError)
	create := fs.String("create", "", "host a room with this code")
	join := fs.String("join", "", "join the room with this code")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *create == "" && *join == "" {
		return race.ErrMissingRoomCode
	}

	rdb, err := race.Connect(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	rs := race.NewStore(rdb)
	me := race.Player{UID: a.userID, Name: *name}
	if me.Name == "" {
		me.Name = a.userID
	}

	var room race.Room
	if *create != "" {
		room, err = rs.CreateRoom(ctx, *create, me, words.RandomAnswer(a.cfg.Client.Lang, 5))
		if err != nil {
			return err
		}
		a.printf("Room %s created. Waiting for a friend...\n", room.Code)
		if err := waitForGuest(ctx, rs, room.Code); err != nil {
			if cerr := rs.CancelRoom(context.WithoutCancel(ctx), room.Code); cerr != nil {
				a.printf("cancel room: %v\n", cerr)
			}
			return err
		}
	} else if room, err = rs.JoinRoom(ctx, *join, me); err != nil {
		return err
	}

	m, err := race.NewMatch(rs, room.Code, me, room.Word, race.WithOpponentUpdates(func(p race.Progress) {
		a.printf("\nOpponent #%d %s\n", p.Row+1, renderMarks(p.Marks))
		if p.Won {
			a.printf("Opponent solved it!\n")
		}
	}))
	if err != nil {
		return err
	}
	m.Start(ctx)
	defer m.Stop()

	a.printf("Go! %d letters.\n", len(room.Word))
	for m.Session().State() == game.StatePlaying {
		line, ok := a.prompt(ctx, "> ")
		if !ok {
			return nil
		}
		if _, err := m.SubmitWord(ctx, line); err != nil {
			a.printf("%s\n", userMessage(err))
			continue
		}
		renderBoard(a.out, m.Session().Snapshot())
	}
	if m.Session().State() == game.StateWon {
		a.printf("Solved!\n")
	} else {
		a.printf("The word was %s.\n", strings.ToUpper(room.Word))
	}
	return nil
}

func waitForGuest(ctx context.Context, rs *race.Store, code string) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		n, err := rs.PlayerCount(ctx, code)
		if err != nil {
			return err
		}
		if n >= 2 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func runSync(ctx context.Context, a *app, args []string) error {
	rep, err := a.engine.Sync(ctx)
	if err != nil {
		return err
	}
	switch {
	case rep.Offline:
		a.printf("Offline; nothing uploaded.\n")
	case rep.NothingToSync():
		a.printf("Everything is up to date.\n")
	case rep.Partial():
		a.printf("Synced %d of %d games; %d will retry.\n", rep.Synced, rep.Groups, rep.Failed)
	case rep.Failed > 0:
		a.printf("Sync failed for %d games.\n", rep.Failed)
	default:
		a.printf("Synced %d games.\n", rep.Synced)
	}
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	st, err := a.store.Stats(ctx, a.userID)
	if err != nil {
		return err
	}
	a.printf("Played %d  Win %d%%  Streak %d  Max %d\n", st.Played, st.WinRate(), st.CurrentStreak, st.MaxStreak)
	if st.LastPlayed != "" {
		a.printf("Last played %s\n", st.LastPlayed)
	}
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	signup := fs.Bool("signup", false, "create the account first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: usage: wordrush login [-signup] USERNAME PASSWORD", game.ErrInvalidInput)
	}
	auth := a.client.Login
	if *signup {
		auth = a.client.Signup
	}
	res, err := auth(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	a.printf("Signed in as %s.\nexport USER_ID=%s\nexport AUTH_TOKEN=%s\n", res.User.Username, res.User.ID, res.Token)
	return nil
}
