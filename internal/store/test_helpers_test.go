package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

var _ engine.Journal = (*Store)(nil)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGame creates a game header with minimal required fields.
func createTestGame(id string) ir.GameRecord {
	return ir.GameRecord{
		ID:            id,
		Ruleset:       "dice",
		Seed:          7,
		Players:       []string{"p1", "p2"},
		EngineVersion: ir.EngineVersion,
		WireVersion:   ir.WireVersion,
	}
}

// createTestCommit creates a commit row for game with the given seq.
func createTestCommit(game string, seq int64) ir.CommitRecord {
	return ir.CommitRecord{
		Game:      game,
		Seq:       seq,
		Token:     "commit-1",
		Tick:      seq,
		Actor:     "p1",
		ChoiceID:  "choice-0",
		Action:    "roll",
		Context:   ir.Object{"die": ir.Ref("0")},
		Message:   "roll die 0",
		Log:       "rolled 6",
		Version:   10 + seq,
		StateHash: "hash",
	}
}
