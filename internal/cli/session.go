package cli

import (
	"context"
	"fmt"

	"github.com/roach88/beyond/internal/config"
	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
	"github.com/roach88/beyond/internal/player"
	"github.com/roach88/beyond/internal/ruleset"
	"github.com/roach88/beyond/internal/store"
)

// session is a started game with random players at every seat.
type session struct {
	eng     *engine.Engine
	game    ruleset.Game
	players []*player.Random
}

// newSession builds and starts a game. With a store, the game header is
// written before Start so every tick and commit is journaled.
func newSession(ctx context.Context, cfg config.Config, st *store.Store, extra ...engine.Option) (*session, error) {
	opts := append(cfg.EngineOptions(), extra...)
	if st != nil {
		opts = append(opts, engine.WithJournal(st))
	}
	eng := engine.New(opts...)

	if st != nil {
		if err := st.WriteGame(ctx, ir.GameRecord{
			ID:            eng.GameID(),
			Ruleset:       cfg.Game.Ruleset,
			Seed:          cfg.Game.Seed,
			Players:       cfg.Game.Players,
			EngineVersion: ir.EngineVersion,
			WireVersion:   ir.WireVersion,
		}); err != nil {
			return nil, fmt.Errorf("write game header: %w", err)
		}
	}

	game, err := ruleset.Install(eng, cfg.Game)
	if err != nil {
		return nil, err
	}

	s := &session{eng: eng, game: game}
	for i, actor := range cfg.Game.Players {
		p := player.NewRandom(actor, cfg.Game.Seed+int64(i))
		if err := eng.RegisterPlayer(p); err != nil {
			return nil, err
		}
		s.players = append(s.players, p)
	}

	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return s, nil
}
