package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Action describes a named state transition.
//
// E is the entrypoint type a rule offers, C the concrete context derived from
// it, R the result of running the action. Context may be nil when E and C
// are the same type. Message and Log may be nil.
type Action[E, C, R any] struct {
	Name string

	// Context derives the action context from an entrypoint.
	Context func(e *Engine, entry E) (C, error)

	// Execute performs the transition. It may mutate entities and run
	// other actions.
	Execute func(e *Engine, ctx C) (R, error)

	// Message labels the choice shown to players.
	Message func(ctx C) string

	// Log formats the result for the game journal.
	Log func(result R) string
}

// ActionHandle is an action with its type parameters erased, as stored in
// the registry. Only *Action values implement it.
type ActionHandle interface {
	ActionName() string

	resolve(e *Engine, entry any) (any, error)
	describe(ctx any) string
	run(e *Engine, ctx any) (string, error)
}

// ActionName returns the registry key.
func (a *Action[E, C, R]) ActionName() string { return a.Name }

func (a *Action[E, C, R]) resolve(e *Engine, entry any) (any, error) {
	if a.Context == nil {
		if c, ok := entry.(C); ok {
			return c, nil
		}
		return nil, a.typeError("context", entry)
	}
	in, ok := entry.(E)
	if !ok {
		return nil, a.typeError("entrypoint", entry)
	}
	c, err := a.Context(e, in)
	if err != nil {
		return nil, fmt.Errorf("action %s: derive context: %w", a.Name, err)
	}
	return c, nil
}

func (a *Action[E, C, R]) describe(ctx any) string {
	c, ok := ctx.(C)
	if !ok || a.Message == nil {
		return a.Name
	}
	return a.Message(c)
}

func (a *Action[E, C, R]) run(e *Engine, ctx any) (string, error) {
	c, ok := ctx.(C)
	if !ok {
		return "", a.typeError("context", ctx)
	}
	if a.Execute == nil {
		return "", nil
	}
	r, err := a.Execute(e, c)
	if err != nil {
		return "", err
	}
	if a.Log == nil {
		return "", nil
	}
	return a.Log(r), nil
}

func (a *Action[E, C, R]) typeError(what string, got any) error {
	return &RuntimeError{
		Code:    ErrCodeInvalidEntrypoint,
		Message: fmt.Sprintf("unexpected %s type %T", what, got),
		Action:  a.Name,
	}
}

// ActionRecord summarizes one executed action.
type ActionRecord struct {
	Action  string
	Message string
	Log     string
}

// RegisterAction adds an action and returns the handle the registry holds.
// A reused name follows the duplicate policy.
func (e *Engine) RegisterAction(h ActionHandle) (ActionHandle, error) {
	name := h.ActionName()
	if _, exists := e.actions[name]; exists {
		if e.duplicates == DuplicateError {
			return nil, &RuntimeError{
				Code:    ErrCodeDuplicateAction,
				Message: "action " + name + " is already registered",
				Action:  name,
			}
		}
		slog.Debug("action overwritten", "action", name)
	}
	e.clock.Next()
	e.actions[name] = h
	if err := e.requestTick(e.baseContext()); err != nil {
		return h, err
	}
	return h, nil
}

// Action looks up a registered action.
func (e *Engine) Action(name string) (ActionHandle, error) {
	h, ok := e.actions[name]
	if !ok {
		return nil, &RuntimeError{
			Code:    ErrCodeUnknownAction,
			Message: "no action named " + name,
			Action:  name,
		}
	}
	return h, nil
}

// Actions returns registered action names in sorted order.
func (e *Engine) Actions() []string {
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteAction derives the context for entrypoint and runs the named
// action, its triggers and their effects. Once the outermost action returns
// a tick is forced.
func (e *Engine) ExecuteAction(ctx context.Context, name string, entrypoint any) error {
	h, err := e.Action(name)
	if err != nil {
		return err
	}
	actx, err := h.resolve(e, entrypoint)
	if err != nil {
		return err
	}
	_, err = e.ExecuteResolved(ctx, name, actx)
	return err
}

// ExecuteResolved runs the named action with an already derived context.
func (e *Engine) ExecuteResolved(ctx context.Context, name string, actx any) (ActionRecord, error) {
	h, err := e.Action(name)
	if err != nil {
		return ActionRecord{}, err
	}
	e.begin()
	defer e.end()
	return e.runAction(ctx, h, actx)
}

func (e *Engine) runAction(ctx context.Context, h ActionHandle, actx any) (ActionRecord, error) {
	name := h.ActionName()
	if e.actionDepth >= e.maxActionDepth {
		return ActionRecord{}, NewActionDepthError(e.token, name, e.maxActionDepth)
	}

	rec, err := e.runNested(h, actx)
	if err != nil {
		return rec, err
	}

	slog.Debug("action executed",
		"action", rec.Action,
		"message", rec.Message,
		"log", rec.Log,
		"token", e.token,
		"depth", e.actionDepth,
	)

	if e.actionDepth == 0 {
		if err := e.requestTick(ctx); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// runNested runs the action body and its triggers one level deeper.
func (e *Engine) runNested(h ActionHandle, actx any) (ActionRecord, error) {
	e.actionDepth++
	defer func() { e.actionDepth-- }()

	name := h.ActionName()
	rec := ActionRecord{Action: name, Message: h.describe(actx)}

	logLine, err := h.run(e, actx)
	if err != nil {
		return rec, fmt.Errorf("action %s: %w", name, err)
	}
	rec.Log = logLine

	if err := e.fireTriggers(name, actx); err != nil {
		return rec, err
	}
	return rec, nil
}
