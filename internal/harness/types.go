package harness

import (
	"github.com/roach88/beyond/internal/ir"
)

// Trace event kinds.
const (
	EventTick   = "tick"
	EventCommit = "commit"
)

// TraceEvent is one journaled tick or commit.
type TraceEvent struct {
	Kind  string
	Tick  int64
	Token string

	// tick
	Actors  []string
	Choices int
	Changed []string

	// commit
	Seq     int64
	Actor   string
	Choice  string
	Action  string
	Message string
	Log     string
	Context ir.Object
}

// Object projects the event onto the value model, as written to golden traces.
func (ev TraceEvent) Object() ir.Object {
	obj := ir.Object{
		"kind":  ir.String(ev.Kind),
		"tick":  ir.Int(ev.Tick),
		"token": ir.String(ev.Token),
	}
	if ev.Kind == EventTick {
		obj["actors"] = stringArray(ev.Actors)
		obj["choices"] = ir.Int(int64(ev.Choices))
		obj["changed"] = stringArray(ev.Changed)
		return obj
	}
	obj["seq"] = ir.Int(ev.Seq)
	obj["actor"] = ir.String(ev.Actor)
	obj["choice"] = ir.String(ev.Choice)
	obj["action"] = ir.String(ev.Action)
	obj["message"] = ir.String(ev.Message)
	obj["log"] = ir.String(ev.Log)
	if ev.Context == nil {
		obj["context"] = ir.Object{}
	} else {
		obj["context"] = ev.Context
	}
	return obj
}

func stringArray(list []string) ir.Array {
	arr := make(ir.Array, len(list))
	for i, s := range list {
		arr[i] = ir.String(s)
	}
	return arr
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step and assertion held.
	Pass bool

	// Trace is the journal, ticks and commits interleaved in order.
	Trace []TraceEvent

	// Errors holds step and assertion failures.
	Errors []string

	// Final is the entity snapshot after the last step.
	Final ir.ChangeSet

	// StateHash is the hash of Final.
	StateHash string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Commits returns the commit events of the trace.
func (r *Result) Commits() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Kind == EventCommit {
			out = append(out, ev)
		}
	}
	return out
}
