package engine

import (
	"log/slog"

	"github.com/roach88/beyond/internal/ir"
)

// Candidate is a proposed (actor, action, entrypoint) triple produced by a
// positive rule.
type Candidate struct {
	Actor      string
	Action     ActionHandle
	Entrypoint any

	rule *PositiveRule
}

// RuleID returns the id of the positive rule that proposed the candidate.
func (c Candidate) RuleID() string {
	if c.rule == nil {
		return ""
	}
	return c.rule.ID
}

// ActionName returns the candidate's action name.
func (c Candidate) ActionName() string {
	if c.Action == nil {
		return ""
	}
	return c.Action.ActionName()
}

// Offer builds a type-checked candidate.
func Offer[E, C, R any](actor string, a *Action[E, C, R], entry E) Candidate {
	return Candidate{Actor: actor, Action: a, Entrypoint: entry}
}

// Rule is a registered positive or negative rule.
type Rule interface {
	RuleID() string
	Props() ir.Object
	isRule()
}

// PositiveRule proposes candidates. Callback, if set, runs once when a
// choice it proposed is committed, before the action executes.
type PositiveRule struct {
	ID         string
	Properties ir.Object
	Handler    func(e *Engine, props ir.Object) []Candidate
	Callback   func(e *Engine, props ir.Object, ctx any) error
}

// NegativeRule vetoes candidates: returning false removes the candidate.
type NegativeRule struct {
	ID         string
	Properties ir.Object
	Handler    func(e *Engine, c Candidate, props ir.Object) bool
}

func (r *PositiveRule) RuleID() string   { return r.ID }
func (r *PositiveRule) Props() ir.Object { return r.Properties }
func (r *PositiveRule) isRule()          {}

func (r *NegativeRule) RuleID() string   { return r.ID }
func (r *NegativeRule) Props() ir.Object { return r.Properties }
func (r *NegativeRule) isRule()          {}

// RegisterRule appends a rule. Rules are evaluated in registration order.
// Nil Properties are replaced with an empty object so handlers and
// callbacks can keep state in them.
func (e *Engine) RegisterRule(r Rule) error {
	id := r.RuleID()
	for _, existing := range e.rules {
		if existing.RuleID() == id {
			return &RuntimeError{
				Code:    ErrCodeDuplicateRule,
				Message: "rule " + id + " is already registered",
			}
		}
	}
	switch rr := r.(type) {
	case *PositiveRule:
		if rr.Properties == nil {
			rr.Properties = ir.Object{}
		}
	case *NegativeRule:
		if rr.Properties == nil {
			rr.Properties = ir.Object{}
		}
	}

	e.clock.Next()
	e.rules = append(e.rules, r)
	return e.requestTick(e.baseContext())
}

// Rule returns the registered rule with the given id.
func (e *Engine) Rule(id string) (Rule, error) {
	for _, r := range e.rules {
		if r.RuleID() == id {
			return r, nil
		}
	}
	return nil, unknownRule(id)
}

// RemoveRule unregisters a rule. The remaining rules keep their order.
func (e *Engine) RemoveRule(id string) error {
	for i, r := range e.rules {
		if r.RuleID() != id {
			continue
		}
		e.rules = append(e.rules[:i:i], e.rules[i+1:]...)
		e.clock.Next()
		return e.requestTick(e.baseContext())
	}
	return unknownRule(id)
}

// Rules returns rule ids in evaluation order.
func (e *Engine) Rules() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.RuleID()
	}
	return ids
}

func unknownRule(id string) error {
	return &RuntimeError{
		Code:    ErrCodeUnknownRule,
		Message: "no rule with id " + id,
		Details: map[string]string{"rule": id},
	}
}

// candidates runs every positive rule, then filters the pool through every
// negative rule. A candidate survives only if all negative rules accept it.
func (e *Engine) candidates() []Candidate {
	var pool []Candidate
	for _, r := range e.rules {
		pr, ok := r.(*PositiveRule)
		if !ok || pr.Handler == nil {
			continue
		}
		for _, c := range pr.Handler(e, pr.Properties) {
			if c.Action == nil {
				slog.Warn("candidate without action dropped", "rule", pr.ID, "actor", c.Actor)
				continue
			}
			c.rule = pr
			pool = append(pool, c)
		}
	}

	for _, r := range e.rules {
		nr, ok := r.(*NegativeRule)
		if !ok || nr.Handler == nil {
			continue
		}
		kept := pool[:0]
		for _, c := range pool {
			if nr.Handler(e, c, nr.Properties) {
				kept = append(kept, c)
			}
		}
		pool = kept
	}
	return pool
}
