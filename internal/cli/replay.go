package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
	"github.com/roach88/beyond/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Game     string
}

// ReplayResult holds the outcome of a replay.
type ReplayResult struct {
	Game       string      `json:"game"`
	Ruleset    string      `json:"ruleset"`
	Commits    int         `json:"commits"`
	Replayed   int         `json:"replayed"`
	Identical  bool        `json:"identical"`
	FinalHash  string      `json:"final_hash"`
	Divergence *Divergence `json:"divergence,omitempty"`
}

// Divergence describes the first commit whose replay differs from the
// journal.
type Divergence struct {
	Seq      int64  `json:"seq"`
	Choice   string `json:"choice"`
	Reason   string `json:"reason"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journaled game and verify determinism",
		Long: `Rebuild a journaled game from its ruleset, seed and players, commit
the recorded choices in order, and compare every state hash with the
journal.

Game options beyond the ruleset, seed and players (dice count, hand
size, catalog) come from --config and must match the original game.

Examples:
  beyond replay --db ./beyond.db
  beyond replay --db ./beyond.db --game 0192f3c4-... --config game.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Game, "game", "", "game id (default: latest)")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions) error {
	ctx := commandContext(cmd)

	log, err := openGameLog(ctx, opts.Database, opts.Game)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg.Game.Ruleset = log.Game.Ruleset
	cfg.Game.Seed = log.Game.Seed
	cfg.Game.Players = log.Game.Players
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	// The replay journals into memory so its hashes are computed exactly
	// where the original game computed them.
	mem, err := store.Open(":memory:")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create in-memory store", err)
	}
	defer mem.Close()

	s, err := newSession(ctx, cfg, mem, engine.WithGameID(log.Game.ID))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to rebuild game", err)
	}

	result := ReplayResult{
		Game:      log.Game.ID,
		Ruleset:   log.Game.Ruleset,
		Commits:   len(log.Commits),
		Identical: true,
	}
	for _, rec := range log.Commits {
		if d := replayCommit(cmd, s.eng, rec); d != nil {
			result.Identical = false
			result.Divergence = d
			break
		}
		result.Replayed++
	}

	if result.Identical {
		replayed, err := mem.ReadCommits(ctx, log.Game.ID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read replay journal", err)
		}
		for i, rec := range replayed {
			want := log.Commits[i]
			if rec.StateHash != want.StateHash {
				result.Identical = false
				result.Divergence = &Divergence{
					Seq:      want.Seq,
					Choice:   want.ChoiceID,
					Reason:   "state hash differs",
					Expected: want.StateHash,
					Actual:   rec.StateHash,
				}
				break
			}
		}
		result.FinalHash = log.FinalHash()
	}

	var failure *ExitError
	if !result.Identical {
		failure = NewExitError(ExitFailure, fmt.Sprintf("replay diverged at commit %d", result.Divergence.Seq))
	}
	if isJSON(opts.RootOptions) {
		return writeJSON(out(cmd), result, "REPLAY_DIVERGED", failure)
	}
	printReplay(out(cmd), result)
	if failure != nil {
		return failure
	}
	return nil
}

// replayCommit commits one recorded choice and reports a divergence when
// the choice is missing or resolves to a different action.
func replayCommit(cmd *cobra.Command, eng *engine.Engine, rec ir.CommitRecord) *Divergence {
	choice, ok := eng.Choice(rec.ChoiceID)
	if !ok {
		return &Divergence{Seq: rec.Seq, Choice: rec.ChoiceID, Reason: "choice not offered"}
	}
	if choice.Action.ActionName() != rec.Action {
		return &Divergence{
			Seq:      rec.Seq,
			Choice:   rec.ChoiceID,
			Reason:   "choice resolves to a different action",
			Expected: rec.Action,
			Actual:   choice.Action.ActionName(),
		}
	}
	if err := eng.Execute(commandContext(cmd), rec.Actor, rec.ChoiceID); err != nil {
		return &Divergence{Seq: rec.Seq, Choice: rec.ChoiceID, Reason: err.Error()}
	}
	slog.Debug("replayed commit", "seq", rec.Seq, "choice", rec.ChoiceID, "action", rec.Action)
	return nil
}

func printReplay(w io.Writer, r ReplayResult) {
	fmt.Fprintf(w, "%s Replay of %s (%s): %d/%d commits\n", statusMark(r.Identical), r.Game, r.Ruleset, r.Replayed, r.Commits)
	if r.Identical {
		if r.FinalHash != "" {
			fmt.Fprintf(w, "  Final hash: %s\n", r.FinalHash)
		}
		return
	}
	d := r.Divergence
	fmt.Fprintf(w, "  Diverged at commit %d (%s): %s\n", d.Seq, d.Choice, d.Reason)
	if d.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", d.Expected)
		fmt.Fprintf(w, "    actual:   %s\n", d.Actual)
	}
}
