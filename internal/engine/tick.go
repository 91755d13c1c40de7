package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/beyond/internal/ir"
)

// Choice is one entry of the choice table: a surviving candidate with its
// derived context and broadcast projection.
type Choice struct {
	ID      string
	Actor   string
	Action  ActionHandle
	Context any
	View    ir.ChoiceView
	Tick    int64

	rule *PositiveRule
}

// Choices returns the ids of the current choice table in order.
func (e *Engine) Choices() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Choice returns an entry of the current choice table.
func (e *Engine) Choice(id string) (*Choice, bool) {
	c, ok := e.choices[id]
	return c, ok
}

// ChoicesFor returns the broadcast views of the choices owned by actor.
func (e *Engine) ChoicesFor(actor string) []ir.ChoiceView {
	views := []ir.ChoiceView{}
	for _, id := range e.order {
		if c := e.choices[id]; c.Actor == actor {
			views = append(views, c.View)
		}
	}
	return views
}

// requestTick asks for a tick. Outside any action or tick it runs one now.
// Requests made while an action runs are coalesced into the tick forced at
// the end of the outermost action; requests made while a tick computes or
// broadcasts invalidate the table and make the running tick repeat.
func (e *Engine) requestTick(ctx context.Context) error {
	switch {
	case e.state == StateNotStarted:
		return nil
	case e.state == StateComputing:
		e.invalidate()
		return nil
	case e.actionDepth > 0:
		e.pending = true
		return nil
	}
	e.begin()
	defer e.end()
	return e.runTicks(ctx)
}

// invalidate drops the current choice table. Choice ids handed out so far
// fail with ErrUnknownChoice until the next tick publishes a new table.
func (e *Engine) invalidate() {
	e.pending = true
	e.choices = make(map[string]*Choice)
	e.order = nil
}

// runTicks ticks until the state settles, counting each pass against the
// tick quota of the current call.
func (e *Engine) runTicks(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.quota.Check(e.token); err != nil {
			slog.Error("tick quota exceeded",
				"token", e.token,
				"limit", e.quota.MaxTicks(),
				"version", e.clock.Current(),
			)
			return err
		}
		if err := e.tickOnce(ctx); err != nil {
			return err
		}
		if !e.pending {
			return nil
		}
	}
}

func (e *Engine) tickOnce(ctx context.Context) error {
	e.pending = false
	e.state = StateComputing
	defer func() { e.state = StateIdle }()

	table, order := e.buildTable()
	if e.pending {
		// A rule handler moved state while the table was built.
		slog.Debug("tick restarted", "token", e.token, "version", e.clock.Current())
		return nil
	}
	e.ticks++
	e.choices, e.order = table, order
	for _, c := range table {
		c.Tick = e.ticks
	}

	// Detach the log first so writes made by handlers land in the next tick.
	changes := e.changes
	e.changes = make(ir.ChangeSet)

	views := make(map[string][]ir.ChoiceView)
	var actors []string
	for _, id := range order {
		c := table[id]
		if _, seen := views[c.Actor]; !seen {
			actors = append(actors, c.Actor)
		}
		views[c.Actor] = append(views[c.Actor], c.View)
	}
	if len(actors) > 1 {
		slog.Error("turn exclusivity violated",
			"actors", actors,
			"tick", e.ticks,
			"choices", len(order),
		)
	}

	for _, p := range e.players {
		vs := []ir.ChoiceView{}
		if !e.pending {
			vs = append(vs, views[p.ActorID()]...)
		}
		p.Tick(changes.Clone(), vs)
	}

	slog.Debug("tick broadcast",
		"tick", e.ticks,
		"version", e.clock.Current(),
		"choices", len(order),
		"changed", len(changes),
		"token", e.token,
	)

	if e.journal != nil {
		rec := ir.TickRecord{
			Game:    e.gameID,
			Tick:    e.ticks,
			Token:   e.token,
			Version: e.clock.Current(),
			Actors:  actors,
			Choices: len(order),
			Changes: changes,
		}
		if err := e.journal.RecordTick(ctx, rec); err != nil {
			return fmt.Errorf("journal tick %d: %w", e.ticks, err)
		}
	}
	return nil
}

// buildTable evaluates the rules and assigns choice ids.
func (e *Engine) buildTable() (map[string]*Choice, []string) {
	pool := e.candidates()
	table := make(map[string]*Choice, len(pool))
	order := make([]string, 0, len(pool))

	for _, cand := range pool {
		actx, err := cand.Action.resolve(e, cand.Entrypoint)
		if err != nil {
			slog.Warn("candidate dropped",
				"rule", cand.RuleID(),
				"action", cand.ActionName(),
				"actor", cand.Actor,
				"error", err,
			)
			continue
		}
		projected, err := ir.FromGo(actx)
		if err != nil {
			slog.Warn("candidate dropped",
				"rule", cand.RuleID(),
				"action", cand.ActionName(),
				"actor", cand.Actor,
				"error", err,
			)
			continue
		}
		obj, ok := projected.(ir.Object)
		if !ok {
			obj = ir.Object{"value": projected}
		}

		id := fmt.Sprintf("choice-%d", len(order))
		table[id] = &Choice{
			ID:      id,
			Actor:   cand.Actor,
			Action:  cand.Action,
			Context: actx,
			rule:    cand.rule,
			View: ir.ChoiceView{
				ID:         id,
				Message:    cand.Action.describe(actx),
				ActionType: cand.ActionName(),
				Components: ir.CollectRefs(obj),
				Context:    obj,
			},
		}
		order = append(order, id)
	}
	return table, order
}

// Execute commits a choice on behalf of actor: the owning rule's callback
// runs once, then the action with its triggers, then a forced tick.
func (e *Engine) Execute(ctx context.Context, actor, choiceID string) error {
	if e.state == StateNotStarted {
		return newError(ErrCodeNotStarted, "execute before start")
	}
	choice, ok := e.choices[choiceID]
	if !ok {
		return &RuntimeError{
			Code:    ErrCodeUnknownChoice,
			Message: "choice is not in the current table",
			Actor:   actor,
			Choice:  choiceID,
		}
	}
	if choice.Actor != actor {
		return NewForbiddenActorError(actor, choiceID, choice.Actor)
	}

	e.begin()
	defer e.end()
	token := e.token

	if r := choice.rule; r != nil && r.Callback != nil {
		// The callback counts as part of the action: its writes reach
		// players in the tick forced after the action.
		e.actionDepth++
		err := r.Callback(e, r.Properties, choice.Context)
		e.actionDepth--
		if err != nil {
			if e.pending {
				if tickErr := e.requestTick(ctx); tickErr != nil {
					slog.Error("tick after failed callback", "rule", r.ID, "error", tickErr)
				}
			}
			return fmt.Errorf("rule %s callback: %w", r.ID, err)
		}
	}

	rec, err := e.runAction(ctx, choice.Action, choice.Context)
	if err != nil {
		return fmt.Errorf("execute %s: %w", choiceID, err)
	}
	e.commits++

	slog.Info("choice committed",
		"actor", actor,
		"choice", choiceID,
		"action", rec.Action,
		"message", rec.Message,
		"log", rec.Log,
		"token", token,
	)

	if e.journal == nil {
		return nil
	}
	hash, err := e.StateHash()
	if err != nil {
		return fmt.Errorf("execute %s: %w", choiceID, err)
	}
	commit := ir.CommitRecord{
		Game:      e.gameID,
		Seq:       e.commits,
		Token:     token,
		Tick:      choice.Tick,
		Actor:     actor,
		ChoiceID:  choiceID,
		Action:    rec.Action,
		Context:   choice.View.Context,
		Message:   rec.Message,
		Log:       rec.Log,
		Version:   e.clock.Current(),
		StateHash: hash,
	}
	if err := e.journal.RecordCommit(ctx, commit); err != nil {
		return fmt.Errorf("journal commit %d: %w", commit.Seq, err)
	}
	return nil
}
