package player

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// Random is a seeded AI player. It records broadcasts like Recorder and
// picks uniformly among its current choices.
type Random struct {
	*Recorder
	rng *rand.Rand
}

// NewRandom creates a random player. Equal seeds give equal picks for equal
// choice lists.
func NewRandom(actor string, seed int64) *Random {
	return &Random{
		Recorder: NewRecorder(actor),
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(len(actor))+0x706c6179)),
	}
}

// Pick returns the id of a random current choice.
func (p *Random) Pick() (string, bool) {
	choices := p.Choices()
	if len(choices) == 0 {
		return "", false
	}
	return choices[p.rng.IntN(len(choices))].ID, true
}

// Committer commits choices. *engine.Engine implements it.
type Committer interface {
	Execute(ctx context.Context, actor, choiceID string) error
}

// Drive repeatedly lets the first Random player holding choices commit one,
// until no player has a choice or maxCommits is reached (0 means no limit).
// It returns the number of commits made.
func Drive(ctx context.Context, c Committer, players []*Random, maxCommits int) (int, error) {
	commits := 0
	for maxCommits == 0 || commits < maxCommits {
		if err := ctx.Err(); err != nil {
			return commits, err
		}
		moved := false
		for _, p := range players {
			id, ok := p.Pick()
			if !ok {
				continue
			}
			if err := c.Execute(ctx, p.ActorID(), id); err != nil {
				return commits, fmt.Errorf("%s commit %s: %w", p.ActorID(), id, err)
			}
			commits++
			moved = true
			break
		}
		if !moved {
			slog.Debug("no player has choices", "commits", commits)
			return commits, nil
		}
	}
	slog.Info("commit limit reached", "commits", commits)
	return commits, nil
}
