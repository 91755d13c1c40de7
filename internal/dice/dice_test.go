package dice

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

type seat struct {
	actor   string
	choices []ir.ChoiceView
	changes []ir.ChangeSet
}

func (s *seat) ActorID() string { return s.actor }

func (s *seat) Tick(changes ir.ChangeSet, choices []ir.ChoiceView) {
	s.changes = append(s.changes, changes)
	s.choices = choices
}

func setup(t *testing.T, cfg Config) (*engine.Engine, *Game, map[string]*seat) {
	t.Helper()
	e := engine.New(engine.WithTokenGenerator(engine.NewSequenceGenerator("commit")))
	g, err := Install(e, cfg)
	require.NoError(t, err)

	seats := make(map[string]*seat)
	for _, a := range cfg.Actors {
		s := &seat{actor: a}
		seats[a] = s
		require.NoError(t, e.RegisterPlayer(s))
	}
	require.NoError(t, e.Start(context.Background()))
	return e, g, seats
}

func fixedConfig(results ...int64) Config {
	cfg := DefaultConfig(0)
	cfg.Roller = NewFixedRoller(results...)
	return cfg
}

func TestInstall_StartOffersOneRollPerDie(t *testing.T) {
	_, _, seats := setup(t, fixedConfig(4))

	p1 := seats["p1"]
	require.Len(t, p1.choices, 2)
	assert.Equal(t, "choice-0", p1.choices[0].ID)
	assert.Equal(t, "choice-1", p1.choices[1].ID)
	assert.Equal(t, []ir.Ref{"0"}, p1.choices[0].Components)
	assert.Equal(t, []ir.Ref{"1"}, p1.choices[1].Components)
	assert.Equal(t, ActionRoll, p1.choices[0].ActionType)

	first := p1.changes[0]
	assert.Equal(t, ir.Int(6), first["0"]["sides"])
	assert.Equal(t, ir.Int(1), first["0"]["value"])

	assert.Empty(t, seats["p2"].choices)
}

func TestRoll_SetsValueAndHidesRolledDie(t *testing.T) {
	e, g, seats := setup(t, fixedConfig(5))

	require.NoError(t, e.Execute(context.Background(), "p1", "choice-0"))

	assert.Equal(t, int64(5), g.Dice[0].Int("value"))
	assert.Equal(t, int64(1), g.Dice[0].Int("rolls"))
	assert.Equal(t, int64(6), g.Turn.Int("total"))

	p1 := seats["p1"]
	require.Len(t, p1.choices, 2)
	assert.Equal(t, ActionRoll, p1.choices[0].ActionType)
	assert.Equal(t, []ir.Ref{"1"}, p1.choices[0].Components)
	assert.Equal(t, ActionEndTurn, p1.choices[1].ActionType)

	last := p1.changes[len(p1.changes)-1]
	assert.Equal(t, ir.Int(5), last["0"]["value"])
}

func TestEndTurn_RotatesAndResetsRolls(t *testing.T) {
	e, g, seats := setup(t, fixedConfig(3))
	ctx := context.Background()

	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
	require.NoError(t, e.Execute(ctx, "p1", "choice-1"))

	assert.Equal(t, "p2", g.Turn.Str("active"))
	assert.False(t, g.Turn.Bool("rolled"))
	assert.Empty(t, seats["p1"].choices)
	require.Len(t, seats["p2"].choices, 2)

	err := e.Execute(ctx, "p1", "choice-0")
	assert.ErrorIs(t, err, engine.ErrForbiddenActor)
}

func TestGame_EndsAfterRounds(t *testing.T) {
	cfg := fixedConfig(2)
	cfg.Rounds = 1
	e, g, seats := setup(t, cfg)
	ctx := context.Background()

	for _, actor := range cfg.Actors {
		require.NoError(t, e.Execute(ctx, actor, "choice-0"))
		require.NoError(t, e.Execute(ctx, actor, "choice-1"))
	}

	assert.True(t, g.Over())
	assert.Equal(t, int64(2), g.Turn.Int("round"))
	assert.Empty(t, e.Choices())
	assert.Empty(t, seats["p1"].choices)
	assert.Empty(t, seats["p2"].choices)
}

func TestKeepSixes_VetoesRollOfSix(t *testing.T) {
	cfg := fixedConfig(6, 2)
	cfg.KeepSixes = true
	e, g, seats := setup(t, cfg)
	ctx := context.Background()

	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))

	// p2: die 0 shows a six and is kept, only die 1 may be rolled.
	assert.Equal(t, int64(6), g.Dice[0].Int("value"))
	p2 := seats["p2"]
	require.Len(t, p2.choices, 1)
	assert.Equal(t, []ir.Ref{"1"}, p2.choices[0].Components)
}

func TestInstall_Validation(t *testing.T) {
	_, err := Install(engine.New(), Config{Roller: NewFixedRoller()})
	assert.Error(t, err)

	_, err = Install(engine.New(), Config{Actors: []string{"p1"}})
	assert.Error(t, err)
}

func TestSeededRoller_Deterministic(t *testing.T) {
	a, b := NewSeededRoller(42), NewSeededRoller(42)
	for i := 0; i < 20; i++ {
		v := a.Roll(6)
		assert.Equal(t, v, b.Roll(6))
		assert.GreaterOrEqual(t, v, int64(1))
		assert.LessOrEqual(t, v, int64(6))
	}
}

func TestFixedRoller_RepeatsLast(t *testing.T) {
	r := NewFixedRoller(3, 4)
	assert.Equal(t, []int64{3, 4, 4}, []int64{r.Roll(6), r.Roll(6), r.Roll(6)})
	assert.Equal(t, int64(1), NewFixedRoller().Roll(6))
}

func TestKeepSixes_AllSixesCanEndTurnWithoutRolling(t *testing.T) {
	cfg := fixedConfig(6, 6)
	cfg.KeepSixes = true
	e, g, seats := setup(t, cfg)
	ctx := context.Background()

	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
	require.NoError(t, e.Execute(ctx, "p1", "choice-0"))

	assert.Equal(t, "p2", g.Turn.Str("active"))
	p2 := seats["p2"]
	require.Len(t, p2.choices, 1)
	assert.Equal(t, ActionEndTurn, p2.choices[0].ActionType)
}

func TestKeepSixes_KeepsTopFaceOfAnyDie(t *testing.T) {
	tests := []struct {
		name    string
		sides   int64
		first   int64
		offered []ir.Ref
	}{
		{"d4 showing 4 is kept", 4, 4, []ir.Ref{"1"}},
		{"d20 showing 6 is rolled again", 20, 6, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fixedConfig(tt.first, 2)
			cfg.Sides = tt.sides
			cfg.KeepSixes = true
			e, g, seats := setup(t, cfg)
			ctx := context.Background()

			require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
			require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
			require.NoError(t, e.Execute(ctx, "p1", "choice-0"))
			require.Equal(t, "p2", g.Turn.Str("active"))
			assert.Equal(t, tt.first, g.Dice[0].Int("value"))

			var rolls []ir.Ref
			for _, c := range seats["p2"].choices {
				if c.ActionType == ActionRoll {
					rolls = append(rolls, c.Components...)
				}
			}
			if tt.offered == nil {
				assert.Equal(t, []ir.Ref{"0", "1"}, rolls)
				return
			}
			assert.Equal(t, tt.offered, rolls)
		})
	}
}
