package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct{ id string }

func (f *fakeEntity) Ref() Ref { return Ref(f.id) }

type rollContext struct {
	Die    *fakeEntity   `json:"die"`
	Bonus  int           `json:"bonus,omitempty"`
	Extra  []*fakeEntity `json:"extra"`
	Note   string
	hidden string
}

func TestFromGoPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"string", "x", String("x")},
		{"bool", true, Bool(true)},
		{"int", 3, Int(3)},
		{"int8", int8(-2), Int(-2)},
		{"uint16", uint16(9), Int(9)},
		{"value passthrough", Ref("4"), Ref("4")},
		{"referencer", &fakeEntity{id: "5"}, Ref("5")},
		{"nil referencer", (*fakeEntity)(nil), Null{}},
		{"slice", []int{1, 2}, Array{Int(1), Int(2)}},
		{"map", map[string]string{"k": "v"}, Object{"k": String("v")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestFromGoStruct(t *testing.T) {
	ctx := rollContext{
		Die:    &fakeEntity{id: "0"},
		Extra:  []*fakeEntity{{id: "3"}, {id: "1"}},
		Note:   "n",
		hidden: "skip",
	}

	got, err := FromGo(ctx)
	require.NoError(t, err)

	want := Object{
		"die":   Ref("0"),
		"extra": Array{Ref("3"), Ref("1")},
		"Note":  String("n"),
	}
	assert.True(t, Equal(want, got), "got %#v", got)

	refs := CollectRefs(got)
	assert.Equal(t, []Ref{"0", "3", "1"}, refs)
}

func TestFromGoRejects(t *testing.T) {
	_, err := FromGo(map[string]float64{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")

	_, err = FromGo(map[int]string{1: "x"})
	require.Error(t, err)

	_, err = FromGo(func() {})
	require.Error(t, err)
}

func TestCollectRefsDeduplicates(t *testing.T) {
	v := Object{
		"a": Ref("1"),
		"b": Array{Ref("1"), Ref("2"), Object{"c": Ref("2")}},
	}
	assert.Equal(t, []Ref{"1", "2"}, CollectRefs(v))
}
