package engine

import "github.com/roach88/beyond/internal/ir"

// Player receives a broadcast on every tick: the changes since the last
// broadcast and the choices it may commit. Tick runs synchronously inside
// the engine's tick and may call Engine.Execute.
type Player interface {
	ActorID() string
	Tick(changes ir.ChangeSet, choices []ir.ChoiceView)
}

// RegisterPlayer attaches a player. Actor ids must be unique.
func (e *Engine) RegisterPlayer(p Player) error {
	for _, existing := range e.players {
		if existing.ActorID() == p.ActorID() {
			return &RuntimeError{
				Code:    ErrCodeDuplicateActor,
				Message: "a player is already registered for this actor",
				Actor:   p.ActorID(),
			}
		}
	}
	e.clock.Next()
	e.players = append(e.players, p)
	return e.requestTick(e.baseContext())
}

// Players returns actor ids in registration order.
func (e *Engine) Players() []string {
	ids := make([]string, len(e.players))
	for i, p := range e.players {
		ids[i] = p.ActorID()
	}
	return ids
}
