package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Summary is the end-of-game content. Empty Definition/Synonym mean "not available".
type Summary struct {
	Word       string
	Definition string
	Synonym    string
	Won        bool
}

// Summary fetches definition and synonym concurrently when online.
// Failures are swallowed; the summary is cosmetic and never blocks.
func (e *Engine) Summary(ctx context.Context, word, lang string, won bool) Summary {
	s := Summary{Word: word, Won: won}
	if word == "" || !e.net.Online() {
		return s
	}

	var g errgroup.Group
	g.Go(func() error {
		def, err := e.words.Definition(ctx, word, lang)
		if err != nil {
			e.logger.Debug().Err(err).Str("word", word).Msg("definition unavailable")
			return nil
		}
		s.Definition = def
		return nil
	})
	g.Go(func() error {
		syn, err := e.words.Synonym(ctx, word, lang)
		if err != nil {
			e.logger.Debug().Err(err).Str("word", word).Msg("synonym unavailable")
			return nil
		}
		s.Synonym = syn
		return nil
	})
	_ = g.Wait()
	return s
}
