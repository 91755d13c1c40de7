// Package store provides the SQLite game journal.
//
// The journal is an audit trail, not a state store: a game is never loaded
// back from it. Replay rebuilds a game from its ruleset and seed and
// re-commits the journaled choices, comparing state hashes.
//
// Tables:
//   - games: one header row per game (ruleset, seed, players, versions)
//   - commits: one row per committed choice, with the state hash after it
//   - ticks: one row per broadcast, with the change set it carried
//
// # Critical Patterns
//
// Logical ordering:
//   - commits ORDER BY seq ASC, ticks ORDER BY tick ASC
//   - no wall-clock columns
//
// Idempotent writes:
//   - ON CONFLICT DO NOTHING on every insert, so re-recording a row is safe
//
// JSON columns hold RFC 8785 canonical JSON produced by internal/ir.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Rows must reference a recorded game
package store
