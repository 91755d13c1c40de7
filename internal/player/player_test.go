package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/dice"
	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

func views(ids ...string) []ir.ChoiceView {
	out := make([]ir.ChoiceView, len(ids))
	for i, id := range ids {
		out[i] = ir.ChoiceView{ID: id, ActionType: "roll", Components: []ir.Ref{ir.Ref(id[len(id)-1:])}}
	}
	return out
}

func TestRecorder_KeepsBroadcasts(t *testing.T) {
	r := NewRecorder("p1")
	assert.Equal(t, "p1", r.ActorID())
	assert.Nil(t, r.Choices())

	r.Tick(ir.ChangeSet{"0": {"value": ir.Int(1)}}, views("choice-0", "choice-1"))
	r.Tick(ir.ChangeSet{"0": {"value": ir.Int(4)}, "1": {"value": ir.Int(2)}}, views("choice-0"))

	require.Len(t, r.Broadcasts(), 2)
	assert.Len(t, r.Choices(), 1)
	assert.Equal(t, ir.ChangeSet{
		"0": {"value": ir.Int(4)},
		"1": {"value": ir.Int(2)},
	}, r.Merged())
}

func TestRecorder_Find(t *testing.T) {
	r := NewRecorder("p1")
	r.Tick(nil, views("choice-0", "choice-1"))

	c, ok := r.Find("roll", "1")
	require.True(t, ok)
	assert.Equal(t, "choice-1", c.ID)

	c, ok = r.Find("", "")
	require.True(t, ok)
	assert.Equal(t, "choice-0", c.ID)

	_, ok = r.Find("pass", "")
	assert.False(t, ok)
	_, ok = r.Find("roll", "7")
	assert.False(t, ok)
}

func TestRandom_SameSeedSamePicks(t *testing.T) {
	a, b := NewRandom("p1", 3), NewRandom("p1", 3)
	choices := views("choice-0", "choice-1", "choice-2", "choice-3")
	a.Tick(nil, choices)
	b.Tick(nil, choices)
	for i := 0; i < 10; i++ {
		ida, ok := a.Pick()
		require.True(t, ok)
		idb, _ := b.Pick()
		assert.Equal(t, ida, idb)
	}

	empty := NewRandom("p2", 3)
	_, ok := empty.Pick()
	assert.False(t, ok)
}

func TestDrive_PlaysDiceToTheEnd(t *testing.T) {
	e := engine.New(engine.WithTokenGenerator(engine.NewSequenceGenerator("commit")))
	cfg := dice.DefaultConfig(11)
	cfg.Rounds = 2
	g, err := dice.Install(e, cfg)
	require.NoError(t, err)

	players := []*Random{NewRandom("p1", 1), NewRandom("p2", 2)}
	for _, p := range players {
		require.NoError(t, e.RegisterPlayer(p))
	}
	require.NoError(t, e.Start(context.Background()))

	n, err := Drive(context.Background(), e, players, 0)
	require.NoError(t, err)

	// 4 turns, each one or two rolls then end-turn.
	assert.GreaterOrEqual(t, n, 8)
	assert.LessOrEqual(t, n, 12)
	assert.True(t, g.Over())
	assert.Equal(t, int64(n), e.Commits())
}

func TestDrive_StopsAtLimit(t *testing.T) {
	e := engine.New()
	_, err := dice.Install(e, dice.DefaultConfig(5))
	require.NoError(t, err)
	p := NewRandom("p1", 1)
	require.NoError(t, e.RegisterPlayer(p))
	require.NoError(t, e.RegisterPlayer(NewRandom("p2", 2)))
	require.NoError(t, e.Start(context.Background()))

	n, err := Drive(context.Background(), e, []*Random{p}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type failing struct{}

func (failing) Execute(context.Context, string, string) error { return errors.New("boom") }

func TestDrive_PropagatesCommitErrors(t *testing.T) {
	p := NewRandom("p1", 1)
	p.Tick(nil, views("choice-0"))

	n, err := Drive(context.Background(), failing{}, []*Random{p}, 0)
	assert.Equal(t, 0, n)
	assert.ErrorContains(t, err, "boom")
}

func TestDrive_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewRandom("p1", 1)
	p.Tick(nil, views("choice-0"))

	_, err := Drive(ctx, failing{}, []*Random{p}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
