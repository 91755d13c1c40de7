package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/beyond/internal/harness"
	"github.com/roach88/beyond/internal/ir"
	"github.com/roach88/beyond/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Game     string
	Ticks    bool   // include tick events
	Actor    string // optional - filter commits to one actor
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Game     ir.GameRecord `json:"game"`
	Timeline []ir.Object   `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Ticks     int    `json:"ticks"`
	Commits   int    `json:"commits"`
	FinalHash string `json:"final_hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a game",
		Long: `Show the commits of a journaled game in order, optionally interleaved
with the ticks they forced.

Without --game the most recent game in the database is shown.

Examples:
  beyond trace --db ./beyond.db
  beyond trace --db ./beyond.db --game 0192f3c4-... --ticks
  beyond trace --db ./beyond.db --actor p2 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Game, "game", "", "game id (default: latest)")
	cmd.Flags().BoolVar(&opts.Ticks, "ticks", false, "include tick events")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "only show commits by this actor")

	return cmd
}

func runTrace(cmd *cobra.Command, opts *TraceOptions) error {
	ctx := commandContext(cmd)

	log, err := openGameLog(ctx, opts.Database, opts.Game)
	if err != nil {
		return err
	}

	result := TraceResult{
		Game:     log.Game,
		Timeline: []ir.Object{},
		Stats: TraceStats{
			Ticks:     len(log.Ticks),
			Commits:   len(log.Commits),
			FinalHash: log.FinalHash(),
		},
	}
	var events []harness.TraceEvent
	for _, ev := range harness.Timeline(log) {
		if ev.Kind == harness.EventTick && !opts.Ticks {
			continue
		}
		if ev.Kind == harness.EventCommit && opts.Actor != "" && ev.Actor != opts.Actor {
			continue
		}
		events = append(events, ev)
		result.Timeline = append(result.Timeline, ev.Object())
	}

	if isJSON(opts.RootOptions) {
		return writeJSON(out(cmd), result, "", nil)
	}
	printTrace(out(cmd), result, events)
	return nil
}

// openGameLog loads one game from a journal. An empty id selects the
// latest game.
func openGameLog(ctx context.Context, path, id string) (store.GameLog, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.GameLog{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if id == "" {
		if id, err = st.LatestGame(ctx); err != nil {
			return store.GameLog{}, WrapExitError(ExitCommandError, "no games in database", err)
		}
	}
	log, err := st.LoadGame(ctx, id)
	if errors.Is(err, store.ErrGameNotFound) {
		return store.GameLog{}, WrapExitError(ExitCommandError, fmt.Sprintf("game %q not found", id), err)
	}
	if err != nil {
		return store.GameLog{}, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	return log, nil
}

func printTrace(w io.Writer, result TraceResult, events []harness.TraceEvent) {
	g := result.Game
	fmt.Fprintf(w, "Game %s (%s, seed %d, players %s)\n", g.ID, g.Ruleset, g.Seed, strings.Join(g.Players, ", "))
	fmt.Fprintln(w)
	for _, ev := range events {
		if ev.Kind == harness.EventTick {
			fmt.Fprintf(w, "  tick %-4d %d choices for %s, changed [%s]\n",
				ev.Tick, ev.Choices, strings.Join(ev.Actors, ", "), strings.Join(ev.Changed, " "))
			continue
		}
		ctxJSON, _ := ir.MarshalCanonical(ev.Context)
		fmt.Fprintf(w, "  #%-4d %s %s %s %s\n", ev.Seq, ev.Actor, ev.Choice, ev.Action, ctxJSON)
		if ev.Message != "" {
			fmt.Fprintf(w, "         %s\n", ev.Message)
		}
		if ev.Log != "" {
			fmt.Fprintf(w, "         -> %s\n", ev.Log)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Ticks: %d, Commits: %d\n", result.Stats.Ticks, result.Stats.Commits)
	if result.Stats.FinalHash != "" {
		fmt.Fprintf(w, "Final hash: %s\n", result.Stats.FinalHash)
	}
}
