// Package harness runs YAML game scenarios against the real engine.
//
// # Scenario Format
//
//	name: dice_single_turn
//	description: "p1 rolls one die and ends the turn"
//	game:
//	  ruleset: dice
//	  players: [p1, p2]
//	  rolls: [4]
//	steps:
//	  - actor: p1
//	    action: roll
//	    component: "0"
//	  - actor: p1
//	    choice: choice-1
//	  - actor: p1
//	    choice: choice-0
//	    expect_error: FORBIDDEN_ACTOR
//	  - auto: 20
//	assertions:
//	  - type: choice_count
//	    actor: p2
//	    count: 2
//	  - type: final_state
//	    entity: turn
//	    expect: { active: p2 }
//
// The engine and game sections accept the same keys as the configuration
// file and default the same way.
//
// # Steps
//
// A step commits one choice for actor, chosen by id (choice) or by the
// first current choice matching action and, optionally, a referenced
// entity id (component). expect_error names the RuntimeErrorCode the
// commit must fail with. An auto step lets seeded random players commit
// up to N choices.
//
// # Assertion Types
//
//   - trace_contains: a commit of action (by actor, with context subset) exists
//   - trace_order: actions were committed in this order
//   - trace_count: action was committed exactly count times
//   - choice_count: actor currently holds count choices
//   - query_count: query returns count entities
//   - final_state: an entity (by name or id) has the expected attributes
//   - game_over: the ruleset reports the game finished (or not, with over: false)
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory SQLite journal with sequential
// commit tokens ("commit-1", ...) and the scenario name as game id. The
// trace is read back from the journal, so golden files also cover what
// the store persists.
package harness
