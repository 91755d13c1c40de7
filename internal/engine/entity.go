package engine

import (
	"sort"
	"strings"

	"github.com/roach88/beyond/internal/ir"
)

// LazyFunc computes a derived attribute. It must be pure with respect to
// engine state: it may read entities and queries but never mutate them.
type LazyFunc func(e *Engine, self *Entity) ir.Value

// Attr is one attribute definition: either a plain value or a lazy
// (query) attribute. Build them with Plain and Lazy.
type Attr struct {
	value ir.Value
	lazy  LazyFunc
}

// Attrs maps attribute names to definitions.
type Attrs map[string]Attr

// Plain defines a stored attribute.
func Plain(v ir.Value) Attr {
	if v == nil {
		v = ir.Null{}
	}
	return Attr{value: v}
}

// Lazy defines a derived attribute, memoized against the engine version.
func Lazy(fn LazyFunc) Attr {
	return Attr{lazy: fn}
}

// PlainAttrs wraps every value of obj with Plain.
func PlainAttrs(obj ir.Object) Attrs {
	attrs := make(Attrs, len(obj))
	for k, v := range obj {
		attrs[k] = Plain(v)
	}
	return attrs
}

// IsLazy reports whether the attribute is derived.
func (a Attr) IsLazy() bool {
	return a.lazy != nil
}

// slot is the live state of one attribute on an entity.
type slot struct {
	value ir.Value
	lazy  LazyFunc

	// memo for lazy slots
	cached  ir.Value
	version int64
	valid   bool
}

// Reserved attribute names, filled in by the engine.
const (
	AttrID   = "id"
	AttrType = "type"
)

// Entity is a registered component: an id, a set of type tags, an optional
// name and a table of attributes.
//
// Entities are never deleted. All attribute access goes through the
// accessors so that lazy attributes stay memoized and writes reach the
// change log.
type Entity struct {
	id    string
	types []string
	name  string
	attrs map[string]*slot
	eng   *Engine
}

// ID returns the entity id.
func (ent *Entity) ID() string { return ent.id }

// Ref returns a reference to the entity. Entity implements ir.Referencer,
// so entities inside action contexts project as "@<id>".
func (ent *Entity) Ref() ir.Ref { return ir.Ref(ent.id) }

// Name returns the registration name, or "".
func (ent *Entity) Name() string { return ent.name }

// Types returns the entity's type tags in registration order.
func (ent *Entity) Types() []string {
	out := make([]string, len(ent.types))
	copy(out, ent.types)
	return out
}

// Is reports whether the entity carries type tag t.
func (ent *Entity) Is(t string) bool {
	for _, tag := range ent.types {
		if tag == t {
			return true
		}
	}
	return false
}

// Has reports whether the attribute exists.
func (ent *Entity) Has(name string) bool {
	_, ok := ent.attrs[name]
	return ok
}

// Keys returns attribute names in sorted order.
func (ent *Entity) Keys() []string {
	keys := make([]string, 0, len(ent.attrs))
	for k := range ent.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the attribute value. Lazy attributes are recomputed only
// when the engine version has moved past their memo.
func (ent *Entity) Lookup(name string) (ir.Value, bool) {
	s, ok := ent.attrs[name]
	if !ok {
		return nil, false
	}
	if s.lazy == nil {
		return s.value, true
	}
	if !s.valid || ent.eng.clock.Stale(s.version) {
		// Record the version before evaluating: the producer only reads.
		s.version = ent.eng.clock.Current()
		v := s.lazy(ent.eng, ent)
		if v == nil {
			v = ir.Null{}
		}
		s.cached = v
		s.valid = true
	}
	return s.cached, true
}

// Get returns the attribute value or ir.Null{} when absent.
func (ent *Entity) Get(name string) ir.Value {
	v, ok := ent.Lookup(name)
	if !ok {
		return ir.Null{}
	}
	return v
}

// Int returns an integer attribute, or 0.
func (ent *Entity) Int(name string) int64 {
	if v, ok := ent.Get(name).(ir.Int); ok {
		return int64(v)
	}
	return 0
}

// Str returns a string attribute, or "".
func (ent *Entity) Str(name string) string {
	if v, ok := ent.Get(name).(ir.String); ok {
		return string(v)
	}
	return ""
}

// Bool returns a boolean attribute, or false.
func (ent *Entity) Bool(name string) bool {
	if v, ok := ent.Get(name).(ir.Bool); ok {
		return bool(v)
	}
	return false
}

// RefTo resolves a reference attribute to its entity, or nil.
func (ent *Entity) RefTo(name string) *Entity {
	r, ok := ent.Get(name).(ir.Ref)
	if !ok {
		return nil
	}
	return ent.eng.Resolve(r)
}

// Refs resolves an array-of-references attribute. Non-reference elements
// and dangling references are skipped.
func (ent *Entity) Refs(name string) []*Entity {
	arr, ok := ent.Get(name).(ir.Array)
	if !ok {
		return nil
	}
	out := make([]*Entity, 0, len(arr))
	for _, v := range arr {
		r, ok := v.(ir.Ref)
		if !ok {
			continue
		}
		if target := ent.eng.Resolve(r); target != nil {
			out = append(out, target)
		}
	}
	return out
}

// Set writes a plain attribute. The patch is merged into the change log and
// the version advanced before the write. Setting an unknown name adds it.
//
// Once the engine is started, a set made outside any action or tick runs a
// tick before returning; inside an action the tick is deferred to the end of
// the outermost action.
func (ent *Entity) Set(name string, v ir.Value) error {
	if name == AttrID || name == AttrType {
		return &RuntimeError{
			Code:    ErrCodeReservedAttribute,
			Message: "attribute " + name + " is managed by the engine",
			Details: map[string]string{"entity": ent.id},
		}
	}
	if v == nil {
		v = ir.Null{}
	}
	s, ok := ent.attrs[name]
	if ok && s.lazy != nil {
		return &RuntimeError{
			Code:    ErrCodeQueryAttributeImmutable,
			Message: "cannot assign to query attribute " + name,
			Details: map[string]string{"entity": ent.id, "attribute": name},
		}
	}

	e := ent.eng
	e.changes.Merge(ent.id, ir.Patch{name: v})
	e.clock.Next()
	if !ok {
		s = &slot{}
		ent.attrs[name] = s
	}
	s.value = v

	return e.requestTick(e.baseContext())
}

// Project returns the entity's JSON projection: id, type, plain values as
// stored and lazy values evaluated.
func (ent *Entity) Project() ir.Object {
	obj := make(ir.Object, len(ent.attrs)+2)
	for k := range ent.attrs {
		obj[k] = ent.Get(k)
	}
	obj[AttrID] = ir.String(ent.id)
	obj[AttrType] = ir.String(strings.Join(ent.types, ","))
	return obj
}

func newEntity(e *Engine, id string, types []string, name string, attrs Attrs) *Entity {
	ent := &Entity{
		id:    id,
		types: types,
		name:  name,
		attrs: make(map[string]*slot, len(attrs)),
		eng:   e,
	}
	for k, a := range attrs {
		ent.attrs[k] = &slot{value: a.value, lazy: a.lazy}
	}
	return ent
}
