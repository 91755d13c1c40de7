package harness

import (
	"context"
	"fmt"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
	"github.com/roach88/beyond/internal/player"
	"github.com/roach88/beyond/internal/ruleset"
	"github.com/roach88/beyond/internal/store"
)

// Harness holds the live objects of one scenario run.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	game    ruleset.Game
	players map[string]*player.Random
	order   []*player.Random
}

// Run executes a scenario on a fresh in-memory journal.
//
// Step and assertion failures are reported in the result. The returned
// error is reserved for failures to set the game up.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := setup(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	if err := h.collectTrace(ctx, scenario.Name, result); err != nil {
		return nil, err
	}
	result.Final = h.engine.Snapshot()
	if result.StateHash, err = ir.StateHash(result.Final); err != nil {
		return nil, fmt.Errorf("hash final state: %w", err)
	}

	for _, msg := range h.evaluate(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func setup(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	cfg := scenario.Config()
	opts := append(cfg.EngineOptions(),
		engine.WithJournal(st),
		engine.WithGameID(scenario.Name),
		engine.WithTokenGenerator(engine.NewSequenceGenerator("commit")),
	)
	eng := engine.New(opts...)

	if err := st.WriteGame(ctx, ir.GameRecord{
		ID:            scenario.Name,
		Ruleset:       cfg.Game.Ruleset,
		Seed:          cfg.Game.Seed,
		Players:       cfg.Game.Players,
		EngineVersion: ir.EngineVersion,
		WireVersion:   ir.WireVersion,
	}); err != nil {
		return nil, fmt.Errorf("failed to write game header: %w", err)
	}

	game, err := ruleset.Install(eng, cfg.Game)
	if err != nil {
		return nil, fmt.Errorf("failed to install ruleset: %w", err)
	}

	h := &Harness{
		store:   st,
		engine:  eng,
		game:    game,
		players: make(map[string]*player.Random),
	}
	for i, actor := range cfg.Game.Players {
		p := player.NewRandom(actor, cfg.Game.Seed+int64(i))
		if err := eng.RegisterPlayer(p); err != nil {
			return nil, fmt.Errorf("failed to register player: %w", err)
		}
		h.players[actor] = p
		h.order = append(h.order, p)
	}

	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return h, nil
}

// executeSteps runs steps until the first unexpected failure.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		if step.Auto > 0 {
			if _, err := player.Drive(ctx, h.engine, h.order, step.Auto); err != nil {
				result.AddError(fmt.Sprintf("steps[%d]: auto: %v", i, err))
				return
			}
			continue
		}

		err := h.commit(ctx, step)
		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("steps[%d]: expected %s, commit succeeded", i, step.ExpectError))
			return
		case step.ExpectError != "":
			if got := string(engine.Code(err)); got != step.ExpectError {
				result.AddError(fmt.Sprintf("steps[%d]: expected %s, got %v", i, step.ExpectError, err))
				return
			}
		case err != nil:
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
			return
		}
	}
}

func (h *Harness) commit(ctx context.Context, step Step) error {
	choice := step.Choice
	if choice == "" {
		// Look the choice up in the actor's own broadcast.
		p, ok := h.players[step.Actor]
		if !ok {
			return fmt.Errorf("no player %q", step.Actor)
		}
		view, ok := p.Find(step.Action, step.Component)
		if !ok {
			return fmt.Errorf("%s holds no %s choice for component %q", step.Actor, step.Action, step.Component)
		}
		choice = view.ID
	}
	return h.engine.Execute(ctx, step.Actor, choice)
}

// collectTrace reads the journal back into the result trace.
func (h *Harness) collectTrace(ctx context.Context, gameID string, result *Result) error {
	log, err := h.store.LoadGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	result.Trace = Timeline(log)
	return nil
}

// Timeline interleaves the ticks and commits of a journaled game. Every
// commit forces a new tick, so the commit made from tick t sits between
// tick t and tick t+1.
func Timeline(log store.GameLog) []TraceEvent {
	var trace []TraceEvent
	commits := log.Commits
	for _, t := range log.Ticks {
		for len(commits) > 0 && commits[0].Tick < t.Tick {
			trace = append(trace, commitEvent(commits[0]))
			commits = commits[1:]
		}
		trace = append(trace, TraceEvent{
			Kind:    EventTick,
			Tick:    t.Tick,
			Token:   t.Token,
			Actors:  t.Actors,
			Choices: t.Choices,
			Changed: t.Changes.IDs(),
		})
	}
	for _, c := range commits {
		trace = append(trace, commitEvent(c))
	}
	return trace
}

func commitEvent(c ir.CommitRecord) TraceEvent {
	return TraceEvent{
		Kind:    EventCommit,
		Tick:    c.Tick,
		Token:   c.Token,
		Seq:     c.Seq,
		Actor:   c.Actor,
		Choice:  c.ChoiceID,
		Action:  c.Action,
		Message: c.Message,
		Log:     c.Log,
		Context: c.Context,
	}
}
