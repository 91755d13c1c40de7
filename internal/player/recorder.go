package player

import (
	"github.com/roach88/beyond/internal/ir"
)

// Broadcast is one Tick call as a player saw it.
type Broadcast struct {
	Changes ir.ChangeSet    `json:"changes"`
	Choices []ir.ChoiceView `json:"choices"`
}

// Recorder is a Player that records every broadcast.
type Recorder struct {
	actor      string
	broadcasts []Broadcast
}

// NewRecorder creates a recorder for actor.
func NewRecorder(actor string) *Recorder {
	return &Recorder{actor: actor}
}

// ActorID implements engine.Player.
func (r *Recorder) ActorID() string { return r.actor }

// Tick implements engine.Player.
func (r *Recorder) Tick(changes ir.ChangeSet, choices []ir.ChoiceView) {
	r.broadcasts = append(r.broadcasts, Broadcast{Changes: changes, Choices: choices})
}

// Broadcasts returns everything received so far.
func (r *Recorder) Broadcasts() []Broadcast {
	out := make([]Broadcast, len(r.broadcasts))
	copy(out, r.broadcasts)
	return out
}

// Choices returns the choices of the latest broadcast.
func (r *Recorder) Choices() []ir.ChoiceView {
	if len(r.broadcasts) == 0 {
		return nil
	}
	return r.broadcasts[len(r.broadcasts)-1].Choices
}

// Find returns the first current choice of the given action type. When
// component is not empty the choice must also reference that entity id.
func (r *Recorder) Find(action, component string) (ir.ChoiceView, bool) {
	for _, c := range r.Choices() {
		if action != "" && c.ActionType != action {
			continue
		}
		if component != "" && !references(c, component) {
			continue
		}
		return c, true
	}
	return ir.ChoiceView{}, false
}

// Merged folds every broadcast's changes into one change set, the way a
// client would maintain its copy of the state.
func (r *Recorder) Merged() ir.ChangeSet {
	out := make(ir.ChangeSet)
	for _, b := range r.broadcasts {
		for id, patch := range b.Changes {
			out.Merge(id, patch)
		}
	}
	return out
}

func references(c ir.ChoiceView, id string) bool {
	for _, ref := range c.Components {
		if ref.ID() == id {
			return true
		}
	}
	return false
}
