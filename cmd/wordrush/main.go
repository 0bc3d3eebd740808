// Command wordrush is a terminal client for the word game: the daily
// puzzle (online or offline), timed Speedle, a local AI opponent, friend
// races over Redis, and the sync/stats/login chores around them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/config"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"daily", "play today's puzzle", runDaily},
	{"speedle", "timed puzzle against the clock [-duration sec]", runSpeedle},
	{"ai", "race a local AI opponent [-difficulty easy|medium|hard] [-length n]", runAI},
	{"race", "friend race [-create CODE | -join CODE] [-name NAME]", runRace},
	{"sync", "upload progress recorded offline", runSync},
	{"stats", "show your statistics", runStats},
	{"login", "sign in (or -signup) and print the token", runLogin},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wordrush <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == os.Args[1] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Log.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
	err = cmd.run(ctx, a, os.Args[2:])
	a.Close()
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp), errors.Is(err, context.Canceled):
	default:
		log.Error().Err(err).Str("command", cmd.name).Msg("command failed")
		os.Exit(1)
	}
}
