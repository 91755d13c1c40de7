package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/ir"
)

func TestQuery_EagerAndMemoized(t *testing.T) {
	e := New()
	addDie(t, e)
	calls := 0

	require.NoError(t, e.RegisterQuery("rolled", func(eng *Engine) []*Entity {
		calls++
		return eng.Filter(func(x *Entity) bool { return x.Int("value") > 0 })
	}))
	assert.Equal(t, 1, calls, "initial value is computed at registration")

	first := e.Query("rolled")
	second := e.Query("rolled")
	assert.Empty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "reading twice without mutation reuses the memo")

	require.NoError(t, e.Query("die")[0].Set("value", ir.Int(4)))
	rolled := e.Query("rolled")
	require.Len(t, rolled, 1)
	assert.Equal(t, "0", rolled[0].ID())
	assert.Equal(t, 2, calls)
}

func TestQuery_Unknown(t *testing.T) {
	e := New()
	got := e.Query("nope")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQuery_ReadsDoNotMutate(t *testing.T) {
	e := New()
	addDie(t, e)
	addDie(t, e)
	require.NoError(t, e.Query("die")[0].Set("value", ir.Int(3)))

	version := e.Version()
	changes := e.Changes()
	require.NotEmpty(t, changes)
	for i := 0; i < 5; i++ {
		assert.Len(t, e.Query("die"), 2)
		e.Query("nope")
	}
	assert.Equal(t, version, e.Version())
	assert.Equal(t, changes, e.Changes())
}

func TestQuery_AppendDoesNotShareMemo(t *testing.T) {
	e := New()
	addDie(t, e)
	addDie(t, e)
	extra, err := e.RegisterComponent(Attrs{}, "token")
	require.NoError(t, err)

	a := append(e.Query("die"), extra)
	b := append(e.Query("die"), a[0])
	assert.Equal(t, extra, a[2])
	assert.Len(t, e.Query("die"), 2)
	assert.NotSame(t, a[2], b[2])
}

func TestQuery_DuplicatePolicy(t *testing.T) {
	none := func(*Engine) []*Entity { return nil }
	all := func(e *Engine) []*Entity { return e.Entities() }

	t.Run("overwrite", func(t *testing.T) {
		e := New()
		addDie(t, e)
		require.NoError(t, e.RegisterQuery("q", none))
		require.NoError(t, e.RegisterQuery("q", all))
		assert.Len(t, e.Query("q"), 1)
	})

	t.Run("error", func(t *testing.T) {
		e := New(WithDuplicatePolicy(DuplicateError))
		addDie(t, e)
		require.NoError(t, e.RegisterQuery("q", none))
		err := e.RegisterQuery("q", all)
		assert.ErrorIs(t, err, ErrDuplicateQuery)
		assert.Empty(t, e.Query("q"), "first registration is kept")
	})
}

func TestQuery_RegistrationBumpsVersion(t *testing.T) {
	e := New()
	v := e.Version()
	require.NoError(t, e.RegisterQuery("q", func(*Engine) []*Entity { return nil }))
	assert.Greater(t, e.Version(), v)
}

func TestDuplicatePolicy_String(t *testing.T) {
	assert.Equal(t, "overwrite", DuplicateOverwrite.String())
	assert.Equal(t, "error", DuplicateError.String())
}
