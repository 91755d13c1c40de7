package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/beyond/internal/config"
	"github.com/roach88/beyond/internal/player"
	"github.com/roach88/beyond/internal/ruleset"
	"github.com/roach88/beyond/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database   string
	Ruleset    string
	Seed       int64
	MaxCommits int
}

// PlaySummary is the outcome of a played game.
type PlaySummary struct {
	Game      string `json:"game"`
	Ruleset   string `json:"ruleset"`
	Seed      int64  `json:"seed"`
	Commits   int64  `json:"commits"`
	Ticks     int64  `json:"ticks"`
	Over      bool   `json:"over"`
	StateHash string `json:"state_hash"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game with seeded random players",
		Long: `Play a game from the configured ruleset with one seeded random
player per seat, until no player holds a choice or the commit limit is hit.

With --db every tick and commit is journaled so the game can be traced
and replayed later.

Examples:
  beyond play --ruleset dice --seed 7
  beyond play --config game.yaml --db ./beyond.db
  beyond play --ruleset shards --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().StringVar(&opts.Ruleset, "ruleset", "", "ruleset to play (overrides config)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (overrides config)")
	cmd.Flags().IntVar(&opts.MaxCommits, "max-commits", 0, "commit limit (overrides config)")

	return cmd
}

func runPlay(cmd *cobra.Command, opts *PlayOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyPlayFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if !slices.Contains(ruleset.Names(), cfg.Game.Ruleset) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown ruleset %q: must be one of %v", cfg.Game.Ruleset, ruleset.Names()))
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start game", err)
	}
	slog.Info("game started", "game", s.eng.GameID(), "ruleset", cfg.Game.Ruleset, "seed", cfg.Game.Seed)

	if _, err := player.Drive(ctx, s.eng, s.players, cfg.Game.MaxCommits); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "game aborted", err)
	}

	hash, err := s.eng.StateHash()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash state", err)
	}
	summary := PlaySummary{
		Game:      s.eng.GameID(),
		Ruleset:   cfg.Game.Ruleset,
		Seed:      cfg.Game.Seed,
		Commits:   s.eng.Commits(),
		Ticks:     s.eng.Ticks(),
		Over:      s.game.Over(),
		StateHash: hash,
	}

	if isJSON(opts.RootOptions) {
		return writeJSON(out(cmd), summary, "", nil)
	}
	w := out(cmd)
	fmt.Fprintf(w, "%s Game %s (%s, seed %d)\n", statusMark(summary.Over), summary.Game, summary.Ruleset, summary.Seed)
	fmt.Fprintf(w, "  Commits: %d\n", summary.Commits)
	fmt.Fprintf(w, "  Ticks:   %d\n", summary.Ticks)
	fmt.Fprintf(w, "  Over:    %t\n", summary.Over)
	fmt.Fprintf(w, "  Hash:    %s\n", summary.StateHash)
	return nil
}

// applyPlayFlags lets explicitly set flags win over the config file.
func applyPlayFlags(cmd *cobra.Command, opts *PlayOptions, cfg *config.Config) {
	if cmd.Flags().Changed("ruleset") {
		cfg.Game.Ruleset = opts.Ruleset
	}
	if cmd.Flags().Changed("seed") {
		cfg.Game.Seed = opts.Seed
	}
	if cmd.Flags().Changed("max-commits") {
		cfg.Game.MaxCommits = opts.MaxCommits
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
