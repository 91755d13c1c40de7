package store

import (
	"context"
	"fmt"

	"github.com/roach88/beyond/internal/ir"
)

// WriteGame inserts a game header. Must precede any commit or tick row of
// the game (foreign key). Duplicate ids are silently ignored.
func (s *Store) WriteGame(ctx context.Context, g ir.GameRecord) error {
	players, err := marshalStrings(g.Players)
	if err != nil {
		return fmt.Errorf("write game: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games
		(id, ruleset, seed, players, engine_version, wire_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		g.ID,
		g.Ruleset,
		g.Seed,
		players,
		g.EngineVersion,
		g.WireVersion,
	)
	if err != nil {
		return fmt.Errorf("write game: %w", err)
	}
	return nil
}

// RecordCommit inserts a committed choice.
// Uses ON CONFLICT(game_id, seq) DO NOTHING for idempotency.
//
// The context is stored as canonical JSON so references survive as "@<id>".
func (s *Store) RecordCommit(ctx context.Context, rec ir.CommitRecord) error {
	contextJSON, err := marshalObject(rec.Context)
	if err != nil {
		return fmt.Errorf("record commit: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commits
		(game_id, seq, token, tick, actor, choice_id, action, context, message, log, version, state_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, seq) DO NOTHING
	`,
		rec.Game,
		rec.Seq,
		rec.Token,
		rec.Tick,
		rec.Actor,
		rec.ChoiceID,
		rec.Action,
		contextJSON,
		rec.Message,
		rec.Log,
		rec.Version,
		rec.StateHash,
	)
	if err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	return nil
}

// RecordTick inserts a broadcast.
// Uses ON CONFLICT(game_id, tick) DO NOTHING for idempotency.
func (s *Store) RecordTick(ctx context.Context, rec ir.TickRecord) error {
	actors, err := marshalStrings(rec.Actors)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	changes, err := marshalChanges(rec.Changes)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ticks
		(game_id, tick, token, version, actors, choices, changes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, tick) DO NOTHING
	`,
		rec.Game,
		rec.Tick,
		rec.Token,
		rec.Version,
		actors,
		rec.Choices,
		changes,
	)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	return nil
}
