package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateWithConfig(path string) func(*RootOptions) *cobra.Command {
	return func(opts *RootOptions) *cobra.Command {
		opts.ConfigPath = path
		return NewValidateCommand(opts)
	}
}

const brokenCatalog = `
#Card: {name: string, cost: int & <=10, power: int, copies: *1 | int}
cards: [string]: #Card
cards: big: {name: "Big", cost: 11, power: 1}
`

func TestValidateBuiltinCatalog(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Catalog (built-in): 5 cards, deck of 11")
	assert.Contains(t, out, "✓ Configuration valid")
}

func TestValidateCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.cue")
	require.NoError(t, os.WriteFile(path, []byte(`cards: spark: {name: "Spark", cost: 1, power: 2, copies: 4}`), 0644))

	out, err := execute(t, NewValidateCommand, "json", path)
	require.NoError(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Cards)
	assert.Equal(t, 4, resp.Data.Deck)
}

func TestValidateBrokenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.cue")
	require.NoError(t, os.WriteFile(path, []byte(brokenCatalog), 0644))

	out, err := execute(t, NewValidateCommand, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed with 1 error(s)")
	assert.Contains(t, out, "cards.cue:")
}

func TestValidateBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  duplicate_policy: sometimes\n"), 0644))

	out, err := execute(t, validateWithConfig(path), "json")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "config", resp.Data.Errors[0].Source)
	assert.Contains(t, resp.Data.Errors[0].Message, "unknown policy")
}
