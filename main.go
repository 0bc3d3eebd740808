// Command wordrush-server runs the reference word service: the daily word
// API, the Speedle API and accounts, backed by SQLite.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/config"
	"github.com/ST10258766/Wordleandroidclient/internal/daily"
	"github.com/ST10258766/Wordleandroidclient/internal/httpserver"
	"github.com/ST10258766/Wordleandroidclient/internal/store"
	"github.com/ST10258766/Wordleandroidclient/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Log.SetupLogging()

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	lists, allowed := words.Stats()
	log.Info().Int("lists", lists).Int("words", allowed).Msg("word lists loaded")

	results, err := daily.Open(cfg.Server.DBPath, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("failed to open database")
	}
	defer results.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg.Server, results, store.NewMemoryStore())
	if err := srv.Run(ctx, ":"+cfg.Server.Port); err != nil {
		_ = results.Close()
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
