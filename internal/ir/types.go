package ir

import "sort"

// Patch is a partial projection of one entity: attribute name -> new value.
type Patch = Object

// ChangeSet maps entity ids to the patches accumulated since the last
// broadcast. It is also used for full state snapshots.
type ChangeSet map[string]Patch

// Merge folds a patch into the entry for id. Keys already present are
// overwritten (last write wins).
func (cs ChangeSet) Merge(id string, patch Patch) {
	entry, ok := cs[id]
	if !ok {
		entry = make(Patch, len(patch))
		cs[id] = entry
	}
	for k, v := range patch {
		entry[k] = v
	}
}

// Clone returns a copy that shares no maps with cs.
func (cs ChangeSet) Clone() ChangeSet {
	out := make(ChangeSet, len(cs))
	for id, patch := range cs {
		out[id] = patch.Clone()
	}
	return out
}

// IDs returns entity ids in ascending numeric order.
func (cs ChangeSet) IDs() []string {
	ids := make([]string, 0, len(cs))
	for id := range cs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lessID(ids[i], ids[j])
	})
	return ids
}

// Object converts the change set to an Object for marshaling.
func (cs ChangeSet) Object() Object {
	obj := make(Object, len(cs))
	for id, patch := range cs {
		obj[id] = patch
	}
	return obj
}

// lessID orders numeric ids numerically and falls back to string order.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// ChoiceView is the actor-scoped projection of one choice, as handed to a
// player interface.
type ChoiceView struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	ActionType string `json:"action_type"`
	Components []Ref  `json:"components"`
	Context    Object `json:"context"`
}

// ComponentIDs returns the ids of the entities referenced by the choice.
func (c ChoiceView) ComponentIDs() []string {
	ids := make([]string, len(c.Components))
	for i, r := range c.Components {
		ids[i] = r.ID()
	}
	return ids
}
