package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/ir"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check("commit-1"), "tick %d should be allowed", i+1)
	}
	assert.Equal(t, 3, q.Current())
	assert.Equal(t, 3, q.MaxTicks())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(2)
	require.NoError(t, q.Check("commit-1"))
	require.NoError(t, q.Check("commit-1"))

	err := q.Check("commit-1")
	require.Error(t, err)

	var qe *TickQuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "commit-1", qe.Token)
	assert.Equal(t, 3, qe.Ticks)
	assert.Equal(t, 2, qe.Limit)

	assert.True(t, errors.Is(err, ErrTickQuotaExceeded))
	assert.Equal(t, ErrCodeTickQuotaExceeded, Code(err))
	assert.True(t, IsTickQuotaError(err))
	assert.True(t, IsGuardError(err))
	assert.Equal(t, "TICK_QUOTA_EXCEEDED: commit commit-1 ran 3 ticks > 2 limit", err.Error())
}

// A player that always commits from inside its handler, against a rule that
// always offers, never lets the state settle.
func TestEngine_TickQuotaStopsRunawayHandler(t *testing.T) {
	e := New(WithMaxTicksPerCommit(5), WithTokenGenerator(NewSequenceGenerator("commit")))
	counter, err := e.RegisterComponent(Attrs{"n": Plain(ir.Int(0))}, "counter")
	require.NoError(t, err)

	bump := &Action[*Entity, *Entity, struct{}]{
		Name: "bump",
		Execute: func(_ *Engine, c *Entity) (struct{}, error) {
			return struct{}{}, c.Set("n", ir.Int(c.Int("n")+1))
		},
	}
	_, err = e.RegisterAction(bump)
	require.NoError(t, err)
	require.NoError(t, e.RegisterRule(&PositiveRule{
		ID: "always",
		Handler: func(*Engine, ir.Object) []Candidate {
			return []Candidate{Offer("p1", bump, counter)}
		},
	}))

	p1 := newRecorder("p1")
	p1.onTick = func(_ ir.ChangeSet, choices []ir.ChoiceView) {
		if len(choices) > 0 {
			_ = e.Execute(context.Background(), "p1", choices[0].ID)
		}
	}
	require.NoError(t, e.RegisterPlayer(p1))

	err = e.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTickQuotaExceeded)

	assert.Equal(t, int64(5), e.Ticks())
	assert.Equal(t, int64(5), counter.Int("n"))
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, "", e.Token(), "the failed call released its token")

	// A later call gets a fresh quota.
	p1.onTick = nil
	require.NoError(t, e.Tick(context.Background()))
	assert.Equal(t, int64(6), e.Ticks())
}
