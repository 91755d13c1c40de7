// Package config loads engine and game settings from YAML.
//
// Decoding is strict: unknown fields are rejected so a typo in a key
// ("max_tick_per_commit") fails loudly instead of silently using a default.
//
//	engine:
//	  duplicate_policy: error
//	  max_ticks_per_commit: 64
//	  max_action_depth: 32
//	game:
//	  ruleset: shards
//	  seed: 42
//	  players: [p1, p2]
//	  max_commits: 200
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/beyond/internal/engine"
)

// Config is the full configuration file.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Game   GameConfig   `yaml:"game"`
}

// EngineConfig maps to engine options.
type EngineConfig struct {
	DuplicatePolicy   string `yaml:"duplicate_policy"`
	MaxTicksPerCommit int    `yaml:"max_ticks_per_commit"`
	MaxActionDepth    int    `yaml:"max_action_depth"`
}

// GameConfig selects and parameterizes a ruleset.
type GameConfig struct {
	Ruleset    string   `yaml:"ruleset"`
	Seed       int64    `yaml:"seed"`
	Players    []string `yaml:"players"`
	MaxCommits int      `yaml:"max_commits"`

	// dice
	Dice      int     `yaml:"dice"`
	Sides     int64   `yaml:"sides"`
	Rounds    int64   `yaml:"rounds"`
	KeepSixes bool    `yaml:"keep_sixes"`
	Rolls     []int64 `yaml:"rolls"`

	// shards
	HandSize int64  `yaml:"hand_size"`
	MaxTurns int64  `yaml:"max_turns"`
	Catalog  string `yaml:"catalog"`
}

// Policy names accepted by engine.duplicate_policy.
const (
	PolicyOverwrite = "overwrite"
	PolicyError     = "error"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			DuplicatePolicy:   PolicyOverwrite,
			MaxTicksPerCommit: engine.DefaultMaxTicksPerCommit,
			MaxActionDepth:    engine.DefaultMaxActionDepth,
		},
		Game: GameConfig{
			Ruleset:    "dice",
			Seed:       1,
			Players:    []string{"p1", "p2"},
			MaxCommits: 500,
			Dice:       2,
			Sides:      6,
			Rounds:     3,
			HandSize:   3,
			MaxTurns:   20,
		},
	}
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// An empty document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch c.Engine.DuplicatePolicy {
	case PolicyOverwrite, PolicyError:
	default:
		return fmt.Errorf("engine.duplicate_policy: unknown policy %q", c.Engine.DuplicatePolicy)
	}
	if c.Engine.MaxTicksPerCommit < 1 {
		return fmt.Errorf("engine.max_ticks_per_commit must be positive")
	}
	if c.Engine.MaxActionDepth < 1 {
		return fmt.Errorf("engine.max_action_depth must be positive")
	}

	g := c.Game
	if g.Ruleset == "" {
		return fmt.Errorf("game.ruleset is required")
	}
	if len(g.Players) == 0 {
		return fmt.Errorf("game.players must be non-empty")
	}
	seen := make(map[string]bool, len(g.Players))
	for i, p := range g.Players {
		if p == "" {
			return fmt.Errorf("game.players[%d]: empty actor id", i)
		}
		if seen[p] {
			return fmt.Errorf("game.players[%d]: duplicate actor %q", i, p)
		}
		seen[p] = true
	}
	if g.MaxCommits < 0 {
		return fmt.Errorf("game.max_commits must be non-negative")
	}
	if g.Dice < 1 || g.Sides < 1 || g.Rounds < 1 {
		return fmt.Errorf("game.dice, game.sides and game.rounds must be positive")
	}
	for i, r := range g.Rolls {
		if r < 1 || r > g.Sides {
			return fmt.Errorf("game.rolls[%d]: %d is not a face of a d%d", i, r, g.Sides)
		}
	}
	if g.HandSize < 0 || g.MaxTurns < 1 {
		return fmt.Errorf("game.hand_size must be non-negative and game.max_turns positive")
	}
	return nil
}

// EngineOptions converts the engine section to engine options.
func (c Config) EngineOptions() []engine.Option {
	policy := engine.DuplicateOverwrite
	if c.Engine.DuplicatePolicy == PolicyError {
		policy = engine.DuplicateError
	}
	return []engine.Option{
		engine.WithDuplicatePolicy(policy),
		engine.WithMaxTicksPerCommit(c.Engine.MaxTicksPerCommit),
		engine.WithMaxActionDepth(c.Engine.MaxActionDepth),
	}
}
