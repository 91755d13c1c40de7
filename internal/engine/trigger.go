package engine

import (
	"fmt"
	"log/slog"
)

// Effect is a deferred side effect returned by a trigger. Effects run
// immediately after the trigger that returned them, in order.
type Effect func() error

// Trigger reacts to executed actions.
//
// A trigger with no Actions is unconditional and fires after every action.
// Otherwise it fires only for the listed action names.
type Trigger struct {
	Name    string
	Actions []string
	Execute func(e *Engine, action string, ctx any) ([]Effect, error)
}

func (t *Trigger) matches(action string) bool {
	if len(t.Actions) == 0 {
		return true
	}
	for _, a := range t.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// On builds a trigger scoped to one typed action. fn receives the action's
// concrete context.
func On[E, C, R any](name string, a *Action[E, C, R], fn func(e *Engine, ctx C) ([]Effect, error)) Trigger {
	return Trigger{
		Name:    name,
		Actions: []string{a.Name},
		Execute: func(e *Engine, _ string, ctx any) ([]Effect, error) {
			c, ok := ctx.(C)
			if !ok {
				return nil, a.typeError("context", ctx)
			}
			return fn(e, c)
		},
	}
}

// RegisterTrigger adds a trigger after all earlier ones. Every action the
// trigger is scoped to must already be registered.
func (e *Engine) RegisterTrigger(t Trigger) error {
	for _, existing := range e.triggers {
		if existing.Name == t.Name {
			return &RuntimeError{
				Code:    ErrCodeDuplicateTrigger,
				Message: "trigger " + t.Name + " is already registered",
			}
		}
	}
	for _, a := range t.Actions {
		if _, ok := e.actions[a]; !ok {
			return &RuntimeError{
				Code:    ErrCodeTriggerDependencyMissing,
				Message: fmt.Sprintf("trigger %s depends on unregistered action", t.Name),
				Action:  a,
			}
		}
	}

	e.clock.Next()
	t.Actions = append([]string(nil), t.Actions...)
	e.triggers = append(e.triggers, &t)
	return e.requestTick(e.baseContext())
}

// Triggers returns trigger names in registration order.
func (e *Engine) Triggers() []string {
	names := make([]string, len(e.triggers))
	for i, t := range e.triggers {
		names[i] = t.Name
	}
	return names
}

func (e *Engine) fireTriggers(action string, actx any) error {
	for _, t := range e.triggers {
		if !t.matches(action) || t.Execute == nil {
			continue
		}
		effects, err := t.Execute(e, action, actx)
		if err != nil {
			return fmt.Errorf("trigger %s: %w", t.Name, err)
		}
		for i, eff := range effects {
			if eff == nil {
				continue
			}
			if err := eff(); err != nil {
				return fmt.Errorf("trigger %s: effect %d: %w", t.Name, i, err)
			}
		}
		slog.Debug("trigger fired", "trigger", t.Name, "action", action, "effects", len(effects))
	}
	return nil
}
