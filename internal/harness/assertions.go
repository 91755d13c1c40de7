package harness

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/beyond/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nCommits:\n")
		for _, ev := range e.Trace {
			if ev.Kind == EventCommit {
				fmt.Fprintf(&buf, "  [%d] %s %s %s\n", ev.Seq, ev.Actor, ev.Action, ev.Message)
			}
		}
	}
	return buf.String()
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Kind != EventCommit || ev.Action != a.Action {
			continue
		}
		if a.Actor != "" && ev.Actor != a.Actor {
			continue
		}
		if matchSubset(ev.Context, a.Context) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("commit of %s by %q with context %v", a.Action, a.Actor, a.Context),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks the first commit of each action appears in the
// given order. Other commits may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for _, ev := range trace {
		if ev.Kind != EventCommit {
			continue
		}
		if _, seen := positions[ev.Action]; !seen {
			positions[ev.Action] = int(ev.Seq)
		}
	}

	for _, action := range a.Actions {
		if _, ok := positions[action]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (commit %d) should be before %s (commit %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == EventCommit && ev.Action == a.Action && (a.Actor == "" || ev.Actor == a.Actor) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d commits of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d commits", count),
			Trace:    trace,
		}
	}
	return nil
}

func (h *Harness) assertChoiceCount(a Assertion) error {
	got := len(h.engine.ChoicesFor(a.Actor))
	if got != a.Count {
		return &AssertionError{
			Type:     AssertChoiceCount,
			Expected: fmt.Sprintf("%s holds %d choices", a.Actor, a.Count),
			Actual:   fmt.Sprintf("%d choices", got),
		}
	}
	return nil
}

func (h *Harness) assertQueryCount(a Assertion) error {
	got := len(h.engine.Query(a.Query))
	if got != a.Count {
		return &AssertionError{
			Type:     AssertQueryCount,
			Expected: fmt.Sprintf("query %s returns %d entities", a.Query, a.Count),
			Actual:   fmt.Sprintf("%d entities", got),
		}
	}
	return nil
}

// assertFinalState compares the listed attributes of an entity, found by
// name first and by id second.
func (h *Harness) assertFinalState(a Assertion) error {
	ent := h.engine.Named(a.Entity)
	if ent == nil {
		ent, _ = h.engine.Entity(a.Entity)
	}
	if ent == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("entity %s", a.Entity),
			Actual:   "entity not found",
		}
	}

	proj := ent.Project()
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		actual, ok := proj[k]
		if !ok || !valuesEqual(actual, a.Expect[k]) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Entity, k, a.Expect[k]),
				Actual:   fmt.Sprintf("%s.%s = %s", a.Entity, k, render(actual)),
			}
		}
	}
	return nil
}

func (h *Harness) assertGameOver(a Assertion) error {
	want := true
	if a.Over != nil {
		want = *a.Over
	}
	if got := h.game.Over(); got != want {
		return &AssertionError{
			Type:     AssertGameOver,
			Expected: fmt.Sprintf("over = %t", want),
			Actual:   fmt.Sprintf("over = %t", got),
		}
	}
	return nil
}

// matchSubset reports whether every expected key equals the actual value.
func matchSubset(actual ir.Object, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares through canonical JSON, so a YAML string "@3"
// matches the reference to entity 3 and YAML ints match ir.Int.
func valuesEqual(actual ir.Value, expected any) bool {
	a, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := ir.MarshalCanonical(normalizeYAML(expected))
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

// normalizeYAML turns yaml.v3 output into values FromGo accepts.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = normalizeYAML(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = normalizeYAML(x)
		}
		return out
	case uint64:
		return int64(val)
	}
	return v
}

func render(v ir.Value) string {
	if v == nil {
		return "<missing>"
	}
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// evaluate checks every assertion and returns the failure messages.
func (h *Harness) evaluate(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertChoiceCount:
			err = h.assertChoiceCount(a)
		case AssertQueryCount:
			err = h.assertQueryCount(a)
		case AssertFinalState:
			err = h.assertFinalState(a)
		case AssertGameOver:
			err = h.assertGameOver(a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
