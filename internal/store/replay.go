package store

import (
	"context"
	"fmt"

	"github.com/roach88/beyond/internal/ir"
)

// GameLog is everything journaled for one game.
type GameLog struct {
	Game    ir.GameRecord
	Commits []ir.CommitRecord
	Ticks   []ir.TickRecord
}

// FinalHash returns the state hash after the last commit, or "" when the
// game has no commits.
func (l GameLog) FinalHash() string {
	if len(l.Commits) == 0 {
		return ""
	}
	return l.Commits[len(l.Commits)-1].StateHash
}

// LoadGame reads the header, commits and ticks of a game.
func (s *Store) LoadGame(ctx context.Context, id string) (GameLog, error) {
	g, err := s.ReadGame(ctx, id)
	if err != nil {
		return GameLog{}, err
	}
	commits, err := s.ReadCommits(ctx, id)
	if err != nil {
		return GameLog{}, fmt.Errorf("load game %s: %w", id, err)
	}
	ticks, err := s.ReadTicks(ctx, id)
	if err != nil {
		return GameLog{}, fmt.Errorf("load game %s: %w", id, err)
	}
	return GameLog{Game: g, Commits: commits, Ticks: ticks}, nil
}

// LatestGame returns the id of the most recent game.
func (s *Store) LatestGame(ctx context.Context) (string, error) {
	games, err := s.ListGames(ctx)
	if err != nil {
		return "", err
	}
	if len(games) == 0 {
		return "", fmt.Errorf("latest game: %w", ErrGameNotFound)
	}
	return games[len(games)-1].ID, nil
}
