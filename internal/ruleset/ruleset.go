// Package ruleset installs a named ruleset on an engine from configuration.
package ruleset

import (
	"fmt"
	"os"
	"sort"

	"github.com/roach88/beyond/internal/config"
	"github.com/roach88/beyond/internal/dice"
	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/shards"
)

// Game is an installed ruleset.
type Game interface {
	Over() bool
}

type installer func(e *engine.Engine, g config.GameConfig) (Game, error)

var installers = map[string]installer{
	"dice":   installDice,
	"shards": installShards,
}

// Names returns the known ruleset names, sorted.
func Names() []string {
	names := make([]string, 0, len(installers))
	for name := range installers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install registers g.Ruleset on e. e must not be started.
func Install(e *engine.Engine, g config.GameConfig) (Game, error) {
	install, ok := installers[g.Ruleset]
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q (known: %v)", g.Ruleset, Names())
	}
	return install(e, g)
}

func installDice(e *engine.Engine, g config.GameConfig) (Game, error) {
	var roller dice.Roller = dice.NewSeededRoller(g.Seed)
	if len(g.Rolls) > 0 {
		roller = dice.NewFixedRoller(g.Rolls...)
	}
	game, err := dice.Install(e, dice.Config{
		Dice:      g.Dice,
		Sides:     g.Sides,
		Start:     1,
		Rounds:    g.Rounds,
		Actors:    g.Players,
		KeepSixes: g.KeepSixes,
		Roller:    roller,
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func installShards(e *engine.Engine, g config.GameConfig) (Game, error) {
	cfg, err := shards.DefaultConfig(g.Seed)
	if err != nil {
		return nil, err
	}
	if g.Catalog != "" {
		src, err := os.ReadFile(g.Catalog)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if cfg.Catalog, err = shards.CompileCatalog(g.Catalog, src); err != nil {
			return nil, err
		}
	}
	cfg.Players = g.Players
	cfg.HandSize = int(g.HandSize)
	cfg.MaxTurns = g.MaxTurns
	game, err := shards.Install(e, cfg)
	if err != nil {
		return nil, err
	}
	return game, nil
}
