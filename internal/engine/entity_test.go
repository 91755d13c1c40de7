package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/ir"
)

func TestRegisterComponent_AssignsSequentialIDs(t *testing.T) {
	e := New()

	a := addDie(t, e)
	b := addDie(t, e)

	assert.Equal(t, "0", a.ID())
	assert.Equal(t, "1", b.ID())
	assert.Equal(t, ir.Ref("1"), b.Ref())

	got, ok := e.Entity("1")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = e.Entity("01")
	assert.False(t, ok, "ids are canonical decimal strings")
	_, ok = e.Entity("2")
	assert.False(t, ok)
}

func TestRegisterComponent_TypeTagsRegisterQueries(t *testing.T) {
	e := New()

	shard, err := e.RegisterComponent(Attrs{"cost": Plain(ir.Int(2))}, "card, shard")
	require.NoError(t, err)
	spell, err := e.RegisterComponent(Attrs{"cost": Plain(ir.Int(1))}, "card")
	require.NoError(t, err)

	assert.Equal(t, []string{"card", "shard"}, shard.Types())
	assert.True(t, shard.Is("shard"))
	assert.False(t, spell.Is("shard"))

	assert.Equal(t, []*Entity{shard, spell}, e.Query("card"))
	assert.Equal(t, []*Entity{shard}, e.Query("shard"))
	assert.Equal(t, []string{"card", "shard"}, e.Queries())
}

func TestRegisterComponent_BumpsVersion(t *testing.T) {
	e := New()
	v0 := e.Version()

	addDie(t, e)
	assert.Greater(t, e.Version(), v0)
}

func TestRegisterComponent_SeedsChangeLog(t *testing.T) {
	e := New()

	ent, err := e.RegisterComponent(Attrs{
		"a": Plain(ir.Int(1)),
		"b": Plain(ir.Int(2)),
	}, "thing", "first")
	require.NoError(t, err)

	want := ir.Object{
		"id":   ir.String("0"),
		"type": ir.String("thing"),
		"a":    ir.Int(1),
		"b":    ir.Int(2),
	}
	assert.Equal(t, want, e.Changes()[ent.ID()])
	assert.Same(t, ent, e.Named("first"))
	assert.Nil(t, e.Named("second"))
}

func TestRegisterComponent_RejectsReservedAndDuplicateName(t *testing.T) {
	e := New()

	_, err := e.RegisterComponent(Attrs{"id": Plain(ir.String("x"))}, "thing")
	assert.ErrorIs(t, err, ErrReservedAttribute)

	_, err = e.RegisterComponent(nil, "thing", "board")
	require.NoError(t, err)
	_, err = e.RegisterComponent(nil, "thing", "board")
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, ErrCodeDuplicateName, Code(err))
	assert.Len(t, e.Entities(), 1, "rejected entity is not stored")
}

func TestSet_MergesIntoChangeLog(t *testing.T) {
	e := New()
	ent, err := e.RegisterComponent(Attrs{
		"a": Plain(ir.Int(1)),
		"b": Plain(ir.Int(2)),
	}, "thing")
	require.NoError(t, err)

	v := e.Version()
	require.NoError(t, ent.Set("a", ir.Int(5)))
	assert.Equal(t, v+1, e.Version())
	assert.Equal(t, int64(5), ent.Int("a"))

	patch := e.Changes()[ent.ID()]
	assert.Equal(t, ir.Int(5), patch["a"])
	assert.Equal(t, ir.Int(2), patch["b"])

	require.NoError(t, ent.Set("a", ir.Int(9)))
	assert.Equal(t, ir.Int(9), e.Changes()[ent.ID()]["a"], "last write wins")
}

func TestSet_AddsNewAttribute(t *testing.T) {
	e := New()
	ent, err := e.RegisterComponent(nil, "thing")
	require.NoError(t, err)

	assert.False(t, ent.Has("label"))
	require.NoError(t, ent.Set("label", ir.String("x")))
	assert.True(t, ent.Has("label"))
	assert.Equal(t, "x", ent.Str("label"))
	assert.Equal(t, []string{"label"}, ent.Keys())
}

func TestChanges_ReturnsCopy(t *testing.T) {
	e := New()
	ent := addDie(t, e)

	cs := e.Changes()
	cs[ent.ID()]["value"] = ir.Int(99)
	delete(cs, ent.ID())

	assert.Equal(t, ir.Int(0), e.Changes()[ent.ID()]["value"])
}

func TestLazy_MemoizedUntilVersionMoves(t *testing.T) {
	e := New()
	calls := 0

	ent, err := e.RegisterComponent(Attrs{
		"base": Plain(ir.Int(2)),
		"double": Lazy(func(_ *Engine, self *Entity) ir.Value {
			calls++
			return ir.Int(self.Int("base") * 2)
		}),
	}, "thing")
	require.NoError(t, err)

	// Registration projects the entity once.
	require.Equal(t, 1, calls)

	assert.Equal(t, int64(4), ent.Int("double"))
	assert.Equal(t, int64(4), ent.Int("double"))
	assert.Equal(t, 1, calls, "no mutation, no recompute")

	require.NoError(t, ent.Set("base", ir.Int(5)))
	assert.Equal(t, int64(10), ent.Int("double"))
	assert.Equal(t, 2, calls)

	// Any registration also invalidates memos.
	addDie(t, e)
	ent.Get("double")
	assert.Equal(t, 3, calls)
}

func TestLazy_AssignmentFails(t *testing.T) {
	e := New()
	ent, err := e.RegisterComponent(Attrs{
		"size": Lazy(func(*Engine, *Entity) ir.Value { return ir.Int(1) }),
	}, "hand")
	require.NoError(t, err)

	v := e.Version()
	err = ent.Set("size", ir.Int(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryAttributeImmutable))
	assert.Equal(t, ErrCodeQueryAttributeImmutable, Code(err))
	assert.Equal(t, v, e.Version(), "failed write does not bump the version")
	assert.Equal(t, int64(1), ent.Int("size"))
}

func TestSet_ReservedAttribute(t *testing.T) {
	e := New()
	ent := addDie(t, e)

	assert.ErrorIs(t, ent.Set("type", ir.String("card")), ErrReservedAttribute)
	assert.Equal(t, "die", ent.Str("type"))
}

func TestEntity_References(t *testing.T) {
	e := New()
	a := addDie(t, e)
	b := addDie(t, e)

	cup, err := e.RegisterComponent(Attrs{
		"first": Plain(a.Ref()),
		"all":   Plain(ir.Array{a.Ref(), ir.Ref("42"), b.Ref(), ir.String("x")}),
	}, "cup")
	require.NoError(t, err)

	assert.Same(t, a, cup.RefTo("first"))
	assert.Nil(t, cup.RefTo("missing"))
	assert.Equal(t, []*Entity{a, b}, cup.Refs("all"), "dangling and non-ref elements are skipped")

	data, err := ir.MarshalCanonical(cup.Project())
	require.NoError(t, err)
	assert.Equal(t, `{"all":["@0","@42","@1","x"],"first":"@0","id":"2","type":"cup"}`, string(data))
}

func TestBuild_RegistersChildrenFirst(t *testing.T) {
	e := New()

	board, err := e.Build(Component{
		Type: "board",
		Name: "board",
		Attrs: Attrs{
			"rows": Plain(ir.Int(1)),
		},
		Children: map[string]Component{
			"deck": {Type: "deck"},
		},
		Lists: map[string][]Component{
			"slots": {{Type: "slot"}, {Type: "slot"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "3", board.ID())
	assert.Equal(t, "0", board.RefTo("deck").ID())
	slots := board.Refs("slots")
	require.Len(t, slots, 2)
	assert.Equal(t, "1", slots[0].ID())
	assert.Equal(t, "2", slots[1].ID())
	assert.Same(t, board, e.Named("board"))
	assert.Len(t, e.Query("slot"), 2)
}

func TestBuild_RejectsKeyCollision(t *testing.T) {
	e := New()
	_, err := e.Build(Component{
		Type:     "board",
		Attrs:    Attrs{"deck": Plain(ir.Null{})},
		Children: map[string]Component{"deck": {Type: "deck"}},
	})
	assert.Error(t, err)
}

func TestSet_AfterStartRunsTick(t *testing.T) {
	e, p1 := diceEngine(t)
	require.NoError(t, e.Start(context.Background()))
	require.Equal(t, int64(1), e.Ticks())

	die := e.Query("die")[0]
	require.NoError(t, die.Set("value", ir.Int(3)))

	assert.Equal(t, int64(2), e.Ticks())
	last := p1.last(t)
	assert.Equal(t, ir.ChangeSet{"0": {"value": ir.Int(3)}}, last.changes)
	require.Len(t, last.choices, 1)
	assert.Equal(t, []ir.Ref{"1"}, last.choices[0].Components)
}
