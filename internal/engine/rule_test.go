package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/ir"
)

func noSix() *NegativeRule {
	return &NegativeRule{
		ID:         "no-die-zero",
		Properties: ir.Object{"banned": ir.String("0")},
		Handler: func(_ *Engine, c Candidate, props ir.Object) bool {
			ctx, ok := c.Entrypoint.(*Entity)
			if !ok {
				return true
			}
			return ir.String(ctx.ID()) != props["banned"]
		},
	}
}

func TestNegativeRule_VetoesCandidates(t *testing.T) {
	e, p1 := diceEngine(t)
	require.NoError(t, e.RegisterRule(noSix()))
	require.NoError(t, e.Start(context.Background()))

	choices := p1.last(t).choices
	require.Len(t, choices, 1)
	assert.Equal(t, "choice-0", choices[0].ID)
	assert.Equal(t, []ir.Ref{"1"}, choices[0].Components)
}

func TestRegisterRule_DuplicateID(t *testing.T) {
	e, _ := diceEngine(t)
	err := e.RegisterRule(&PositiveRule{ID: "roll-each-die"})
	assert.ErrorIs(t, err, ErrDuplicateRule)
}

func TestRule_LookupAndRemove(t *testing.T) {
	e, p1 := diceEngine(t)
	require.NoError(t, e.RegisterRule(noSix()))
	assert.Equal(t, []string{"roll-each-die", "no-die-zero"}, e.Rules())

	r, err := e.Rule("no-die-zero")
	require.NoError(t, err)
	assert.Equal(t, ir.String("0"), r.Props()["banned"])

	_, err = e.Rule("missing")
	assert.ErrorIs(t, err, ErrUnknownRule)
	assert.ErrorIs(t, e.RemoveRule("missing"), ErrUnknownRule)

	require.NoError(t, e.Start(context.Background()))
	require.Len(t, p1.last(t).choices, 1)

	// Removing a rule after start reshapes the next table.
	require.NoError(t, e.RemoveRule("no-die-zero"))
	assert.Len(t, p1.last(t).choices, 2)
	assert.Equal(t, []string{"roll-each-die"}, e.Rules())

	require.NoError(t, e.RemoveRule("roll-each-die"))
	assert.Empty(t, p1.last(t).choices)
	assert.Empty(t, e.Choices())
}

func TestRegisterRule_DefaultsProperties(t *testing.T) {
	e := New()
	r := &PositiveRule{ID: "empty"}
	require.NoError(t, e.RegisterRule(r))
	require.NotNil(t, r.Properties)

	r.Properties["k"] = ir.Int(1)
	got, err := e.Rule("empty")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(1), got.Props()["k"])
}

func TestCandidate_Accessors(t *testing.T) {
	roll := newRoll(1)
	c := Offer("p1", roll, (*Entity)(nil))
	assert.Equal(t, "roll", c.ActionName())
	assert.Equal(t, "", c.RuleID())
	assert.Equal(t, "p1", c.Actor)
}
