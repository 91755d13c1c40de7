package shards

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	keys := make([]string, len(cat.Cards))
	for i, c := range cat.Cards {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"ember_sprite", "prism_shard", "stone_warden", "tide_caller", "void_herald"}, keys)
	assert.Equal(t, 11, cat.DeckSize())

	herald, ok := cat.Card("void_herald")
	require.True(t, ok)
	assert.Equal(t, "Void Herald", herald.Name)
	assert.Equal(t, int64(5), herald.Cost)
	assert.Equal(t, 1, herald.Copies, "copies defaults to 1")

	prism, ok := cat.Card("prism_shard")
	require.True(t, ok)
	assert.Equal(t, "Holds a lane open.", prism.Text)

	_, ok = cat.Card("missing")
	assert.False(t, ok)
}

func TestCompileCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `cards: {`},
		{"missing cards", `decks: {}`},
		{"empty", `cards: {}`},
		{"cost out of range", `
#Card: {name: string, cost: int & <=10, power: int, copies: *1 | int}
cards: [string]: #Card
cards: big: {name: "Big", cost: 11, power: 1}
`},
		{"not concrete", `cards: x: {name: string, cost: 1, power: 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCatalog("test.cue", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestCompileCatalog_ErrorPosition(t *testing.T) {
	src := `
#Card: {name: string, cost: int & <=10, power: int, copies: *1 | int}
cards: [string]: #Card
cards: big: {name: "Big", cost: 11, power: 1}
`
	_, err := CompileCatalog("bad.cue", []byte(src))
	require.Error(t, err)

	var ce *CatalogError
	require.True(t, errors.As(err, &ce), "expected CatalogError, got %T", err)
	assert.Equal(t, "cue", ce.Field)
	assert.Contains(t, ce.Error(), "bad.cue:")
}

func TestCatalogError_WithoutPosition(t *testing.T) {
	err := &CatalogError{Field: "cards", Message: "cards is required"}
	assert.Equal(t, "cards: cards is required", err.Error())
}

func TestDefaultCatalogSource_IsCopy(t *testing.T) {
	src := DefaultCatalogSource()
	require.NotEmpty(t, src)
	src[0] = 'X'
	assert.NotEqual(t, byte('X'), DefaultCatalogSource()[0])
}
