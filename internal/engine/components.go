package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/beyond/internal/ir"
)

// RegisterComponent registers a new entity.
//
// typ holds one or more type tags separated by commas ("card,shard"). For
// every tag seen for the first time a query of the same name is registered
// that selects all entities carrying the tag, in id order. The entity's full
// projection seeds the change log so players learn about it on the next
// broadcast. An optional name makes the entity reachable through Named.
func (e *Engine) RegisterComponent(attrs Attrs, typ string, name ...string) (*Entity, error) {
	for k := range attrs {
		if k == AttrID || k == AttrType {
			return nil, &RuntimeError{
				Code:    ErrCodeReservedAttribute,
				Message: "attribute " + k + " is managed by the engine",
			}
		}
	}

	var entName string
	if len(name) > 0 {
		entName = name[0]
	}
	if entName != "" {
		if _, taken := e.named[entName]; taken {
			return nil, &RuntimeError{
				Code:    ErrCodeDuplicateName,
				Message: "entity name " + entName + " is already in use",
			}
		}
	}

	types := splitTypes(typ)
	id := strconv.Itoa(len(e.entities))
	ent := newEntity(e, id, types, entName, attrs)

	e.clock.Next()
	e.entities = append(e.entities, ent)
	if entName != "" {
		e.named[entName] = ent
	}

	for _, tag := range types {
		if _, ok := e.queries[tag]; ok {
			continue
		}
		e.addQuery(tag, func(eng *Engine) []*Entity {
			return eng.Filter(func(x *Entity) bool { return x.Is(tag) })
		})
	}

	e.changes.Merge(id, ent.Project())

	if err := e.requestTick(e.baseContext()); err != nil {
		return ent, err
	}
	return ent, nil
}

// Component describes an entity together with nested sub-entities for Build.
type Component struct {
	Type  string
	Name  string
	Attrs Attrs

	// Children become anonymous entities referenced from the parent by key.
	Children map[string]Component

	// Lists become arrays of references to anonymous entities.
	Lists map[string][]Component
}

// Build registers c and its nested children depth first. Children are
// registered before the parent so the parent can hold their references.
// Keys are visited in sorted order, which keeps id assignment stable.
func (e *Engine) Build(c Component) (*Entity, error) {
	attrs := make(Attrs, len(c.Attrs)+len(c.Children)+len(c.Lists))
	for k, a := range c.Attrs {
		attrs[k] = a
	}

	for _, k := range sortedKeys(c.Children) {
		if _, dup := attrs[k]; dup {
			return nil, fmt.Errorf("build %s: child %q collides with an attribute", c.Type, k)
		}
		child, err := e.Build(c.Children[k])
		if err != nil {
			return nil, fmt.Errorf("build %s.%s: %w", c.Type, k, err)
		}
		attrs[k] = Plain(child.Ref())
	}

	for _, k := range sortedKeys(c.Lists) {
		if _, dup := attrs[k]; dup {
			return nil, fmt.Errorf("build %s: list %q collides with an attribute", c.Type, k)
		}
		list := c.Lists[k]
		refs := make(ir.Array, 0, len(list))
		for i, sub := range list {
			child, err := e.Build(sub)
			if err != nil {
				return nil, fmt.Errorf("build %s.%s[%d]: %w", c.Type, k, i, err)
			}
			refs = append(refs, child.Ref())
		}
		attrs[k] = Plain(refs)
	}

	if c.Name != "" {
		return e.RegisterComponent(attrs, c.Type, c.Name)
	}
	return e.RegisterComponent(attrs, c.Type)
}

// Entity returns the entity with the given id.
func (e *Engine) Entity(id string) (*Entity, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || n >= len(e.entities) || strconv.Itoa(n) != id {
		return nil, false
	}
	return e.entities[n], true
}

// Resolve returns the entity a reference points at, or nil.
func (e *Engine) Resolve(r ir.Ref) *Entity {
	ent, _ := e.Entity(r.ID())
	return ent
}

// Named returns the entity registered under name, or nil.
func (e *Engine) Named(name string) *Entity {
	return e.named[name]
}

// Entities returns every entity in id order.
func (e *Engine) Entities() []*Entity {
	out := make([]*Entity, len(e.entities))
	copy(out, e.entities)
	return out
}

// Filter returns the entities matching pred, in id order.
func (e *Engine) Filter(pred func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, ent := range e.entities {
		if pred(ent) {
			out = append(out, ent)
		}
	}
	return out
}

// Snapshot returns the projection of every entity, keyed by id.
func (e *Engine) Snapshot() ir.ChangeSet {
	cs := make(ir.ChangeSet, len(e.entities))
	for _, ent := range e.entities {
		cs[ent.id] = ent.Project()
	}
	return cs
}

// StateHash hashes the current snapshot.
func (e *Engine) StateHash() (string, error) {
	return ir.StateHash(e.Snapshot())
}

func splitTypes(typ string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(typ, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
