package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/beyond/internal/ir"
)

// ErrGameNotFound is returned when no game has the requested id.
var ErrGameNotFound = errors.New("game not found")

// ReadGame returns the header of a game.
func (s *Store) ReadGame(ctx context.Context, id string) (ir.GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ruleset, seed, players, engine_version, wire_version
		FROM games
		WHERE id = ?
	`, id)

	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.GameRecord{}, fmt.Errorf("read game %s: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return ir.GameRecord{}, fmt.Errorf("read game %s: %w", id, err)
	}
	return g, nil
}

// ListGames returns every game header ordered by id. Game ids are UUIDv7,
// so this is creation order.
//
// Returns an empty slice (not nil) if there are no games.
func (s *Store) ListGames(ctx context.Context) ([]ir.GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ruleset, seed, players, engine_version, wire_version
		FROM games
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games := []ir.GameRecord{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

// ReadCommits returns a game's commits ordered by seq.
//
// Returns an empty slice (not nil) if the game has no commits.
func (s *Store) ReadCommits(ctx context.Context, gameID string) ([]ir.CommitRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, seq, token, tick, actor, choice_id, action, context, message, log, version, state_hash
		FROM commits
		WHERE game_id = ?
		ORDER BY seq ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	commits := []ir.CommitRecord{}
	for rows.Next() {
		var rec ir.CommitRecord
		var contextJSON string
		if err := rows.Scan(
			&rec.Game,
			&rec.Seq,
			&rec.Token,
			&rec.Tick,
			&rec.Actor,
			&rec.ChoiceID,
			&rec.Action,
			&contextJSON,
			&rec.Message,
			&rec.Log,
			&rec.Version,
			&rec.StateHash,
		); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		ctxObj, err := unmarshalObject(contextJSON)
		if err != nil {
			return nil, fmt.Errorf("commit %d: %w", rec.Seq, err)
		}
		rec.Context = ctxObj
		commits = append(commits, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

// ReadTicks returns a game's broadcasts ordered by tick.
//
// Returns an empty slice (not nil) if the game has no ticks.
func (s *Store) ReadTicks(ctx context.Context, gameID string) ([]ir.TickRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, tick, token, version, actors, choices, changes
		FROM ticks
		WHERE game_id = ?
		ORDER BY tick ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	ticks := []ir.TickRecord{}
	for rows.Next() {
		var rec ir.TickRecord
		var actorsJSON, changesJSON string
		if err := rows.Scan(
			&rec.Game,
			&rec.Tick,
			&rec.Token,
			&rec.Version,
			&actorsJSON,
			&rec.Choices,
			&changesJSON,
		); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		if rec.Actors, err = unmarshalStrings(actorsJSON); err != nil {
			return nil, fmt.Errorf("tick %d: %w", rec.Tick, err)
		}
		if rec.Changes, err = unmarshalChanges(changesJSON); err != nil {
			return nil, fmt.Errorf("tick %d: %w", rec.Tick, err)
		}
		ticks = append(ticks, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return ticks, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (ir.GameRecord, error) {
	var g ir.GameRecord
	var playersJSON string
	if err := row.Scan(
		&g.ID,
		&g.Ruleset,
		&g.Seed,
		&playersJSON,
		&g.EngineVersion,
		&g.WireVersion,
	); err != nil {
		return ir.GameRecord{}, err
	}
	players, err := unmarshalStrings(playersJSON)
	if err != nil {
		return ir.GameRecord{}, fmt.Errorf("game %s: %w", g.ID, err)
	}
	g.Players = players
	return g, nil
}
