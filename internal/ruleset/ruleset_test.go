package ruleset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/config"
	"github.com/roach88/beyond/internal/engine"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dice", "shards"}, Names())
}

func TestInstall_Dice(t *testing.T) {
	g := config.Default().Game
	g.Rolls = []int64{2}
	e := engine.New()
	game, err := Install(e, g)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))

	assert.False(t, game.Over())
	assert.Len(t, e.Query("die"), 2)
	assert.Len(t, e.Choices(), 2)
}

func TestInstall_Shards(t *testing.T) {
	g := config.Default().Game
	g.Ruleset = "shards"
	e := engine.New()
	_, err := Install(e, g)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))

	assert.Len(t, e.Query("player"), 2)
	assert.Len(t, e.Query("lane"), 9)
	assert.Len(t, e.Query("slot"), 20)
}

func TestInstall_ShardsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.cue")
	require.NoError(t, os.WriteFile(path, []byte(`cards: spark: {name: "Spark", cost: 1, power: 2, copies: 4}`), 0o644))

	g := config.Default().Game
	g.Ruleset = "shards"
	g.Catalog = path
	e := engine.New()
	_, err := Install(e, g)
	require.NoError(t, err)
	assert.Len(t, e.Query("card"), 8)

	g.Catalog = filepath.Join(t.TempDir(), "missing.cue")
	_, err = Install(engine.New(), g)
	assert.Error(t, err)
}

func TestInstall_Unknown(t *testing.T) {
	g := config.Default().Game
	g.Ruleset = "chess"
	_, err := Install(engine.New(), g)
	assert.ErrorContains(t, err, "unknown ruleset")
}
