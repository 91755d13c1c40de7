package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/beyond/internal/config"
)

// Scenario is a scripted game with assertions.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	Engine config.EngineConfig `yaml:"engine"`
	Game   config.GameConfig   `yaml:"game"`

	// Steps run in order after Start.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one commit or one batch of random commits.
type Step struct {
	Actor     string `yaml:"actor,omitempty"`
	Choice    string `yaml:"choice,omitempty"`
	Action    string `yaml:"action,omitempty"`
	Component string `yaml:"component,omitempty"`

	// ExpectError is the RuntimeErrorCode the commit must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Auto lets the random players commit up to Auto choices.
	Auto int `yaml:"auto,omitempty"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	Action  string         `yaml:"action,omitempty"`
	Actor   string         `yaml:"actor,omitempty"`
	Context map[string]any `yaml:"context,omitempty"`
	Actions []string       `yaml:"actions,omitempty"`
	Count   int            `yaml:"count,omitempty"`
	Query   string         `yaml:"query,omitempty"`
	Entity  string         `yaml:"entity,omitempty"`
	Expect  map[string]any `yaml:"expect,omitempty"`
	Over    *bool          `yaml:"over,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertChoiceCount   = "choice_count"
	AssertQueryCount    = "query_count"
	AssertFinalState    = "final_state"
	AssertGameOver      = "game_over"
)

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario over the configuration defaults.
// Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	defaults := config.Default()
	scenario := Scenario{Engine: defaults.Engine, Game: defaults.Game}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Config returns the engine and game settings of the scenario.
func (s *Scenario) Config() config.Config {
	return config.Config{Engine: s.Engine, Game: s.Game}
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := s.Config().Validate(); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Auto < 0 {
			return fmt.Errorf("steps[%d]: auto must be non-negative", i)
		}
		if step.Auto > 0 {
			if step.Actor != "" || step.Choice != "" || step.Action != "" {
				return fmt.Errorf("steps[%d]: auto cannot be combined with a commit", i)
			}
			continue
		}
		if step.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required", i)
		}
		if step.Choice == "" && step.Action == "" {
			return fmt.Errorf("steps[%d]: choice or action is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains, AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertChoiceCount:
		if a.Actor == "" {
			return fmt.Errorf("assertions[%d]: actor is required for choice_count", index)
		}
	case AssertQueryCount:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for query_count", index)
		}
	case AssertFinalState:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertGameOver:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
