package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beyond/internal/config"
)

func TestLoadScenario_AppliesDefaults(t *testing.T) {
	s := loadTestScenario(t, "dice_single_turn")

	assert.Equal(t, "dice_single_turn", s.Name)
	assert.Equal(t, "dice", s.Game.Ruleset)
	assert.Equal(t, []int64{4}, s.Game.Rolls)
	assert.Equal(t, int64(3), s.Game.Rounds, "rounds from defaults")
	assert.Equal(t, config.PolicyOverwrite, s.Engine.DuplicatePolicy)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, "FORBIDDEN_ACTOR", s.Steps[2].ExpectError)
	assert.Len(t, s.Assertions, 9)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: tiny
description: only an assertion
assertions:
  - {type: query_count, query: die, count: 2}
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Empty(t, s.Steps)
}

func TestParseScenario_Invalid(t *testing.T) {
	base := "name: x\ndescription: y\n"
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", base + "assertion: []\n", "field assertion not found"},
		{"no name", "description: y\nassertions: [{type: game_over}]\n", "name is required"},
		{"no description", "name: x\nassertions: [{type: game_over}]\n", "description is required"},
		{"no assertions", base, "assertions list is required"},
		{"bad config", base + "engine: {max_action_depth: 0}\nassertions: [{type: game_over}]\n", "max_action_depth"},
		{"step without actor", base + "steps: [{choice: choice-0}]\nassertions: [{type: game_over}]\n", "actor is required"},
		{"step without target", base + "steps: [{actor: p1}]\nassertions: [{type: game_over}]\n", "choice or action"},
		{"auto with commit", base + "steps: [{auto: 3, actor: p1}]\nassertions: [{type: game_over}]\n", "auto cannot be combined"},
		{"negative auto", base + "steps: [{auto: -1}]\nassertions: [{type: game_over}]\n", "non-negative"},
		{"assertion type", base + "assertions: [{}]\n", "type is required"},
		{"unknown type", base + "assertions: [{type: vibes}]\n", "unknown assertion type"},
		{"contains action", base + "assertions: [{type: trace_contains}]\n", "action is required"},
		{"order actions", base + "assertions: [{type: trace_order}]\n", "actions list is required"},
		{"choice actor", base + "assertions: [{type: choice_count}]\n", "actor is required"},
		{"query name", base + "assertions: [{type: query_count}]\n", "query is required"},
		{"state entity", base + "assertions: [{type: final_state, expect: {a: 1}}]\n", "entity is required"},
		{"state expect", base + "assertions: [{type: final_state, entity: turn}]\n", "expect is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
