package shards

import (
	_ "embed"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed cards.cue
var defaultCatalog []byte

// CardDef is one catalog entry.
type CardDef struct {
	Key    string `json:"-"`
	Name   string `json:"name"`
	Cost   int64  `json:"cost"`
	Power  int64  `json:"power"`
	Copies int    `json:"copies"`
	Text   string `json:"text,omitempty"`
}

// Catalog is a compiled card catalog, ordered by key.
type Catalog struct {
	Cards []CardDef
}

// Card looks up a definition by key.
func (c *Catalog) Card(key string) (CardDef, bool) {
	i := sort.Search(len(c.Cards), func(i int) bool { return c.Cards[i].Key >= key })
	if i < len(c.Cards) && c.Cards[i].Key == key {
		return c.Cards[i], true
	}
	return CardDef{}, false
}

// DeckSize is the number of cards one player's deck holds.
func (c *Catalog) DeckSize() int {
	n := 0
	for _, def := range c.Cards {
		n += def.Copies
	}
	return n
}

// CatalogError reports an invalid catalog with its source position.
type CatalogError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultCatalog compiles the embedded cards.cue.
func DefaultCatalog() (*Catalog, error) {
	return CompileCatalog("cards.cue", defaultCatalog)
}

// DefaultCatalogSource returns the embedded catalog source.
func DefaultCatalogSource() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// CompileCatalog compiles CUE source holding a top-level cards struct.
// Every card must be concrete and satisfy #Card.
func CompileCatalog(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cardsVal := v.LookupPath(cue.ParsePath("cards"))
	if !cardsVal.Exists() {
		return nil, &CatalogError{
			Field:   "cards",
			Message: "cards is required",
			Pos:     v.Pos(),
		}
	}
	if err := cardsVal.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := cardsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{}
	for iter.Next() {
		var def CardDef
		if err := iter.Value().Decode(&def); err != nil {
			return nil, formatCUEError(err)
		}
		def.Key = iter.Label()
		if def.Copies == 0 {
			def.Copies = 1
		}
		cat.Cards = append(cat.Cards, def)
	}
	if len(cat.Cards) == 0 {
		return nil, &CatalogError{
			Field:   "cards",
			Message: "at least one card is required",
			Pos:     cardsVal.Pos(),
		}
	}
	sort.Slice(cat.Cards, func(i, j int) bool { return cat.Cards[i].Key < cat.Cards[j].Key })
	return cat, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CatalogError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
