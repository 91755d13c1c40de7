package dice

import (
	"errors"
	"fmt"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

// Rule, action and trigger names.
const (
	ActionRoll    = "roll"
	ActionEndTurn = "end-turn"

	RuleRollEachDie = "roll-each-die"
	RuleEndTurn     = "end-turn-after-roll"
	RuleKeepSixes   = "keep-sixes"

	TriggerRotate = "rotate-turn"
)

// Config describes one dice game.
type Config struct {
	Dice      int
	Sides     int64
	Start     int64
	Rounds    int64
	Actors    []string
	KeepSixes bool
	Roller    Roller
}

// DefaultConfig is two six-sided dice, two actors and three rounds.
func DefaultConfig(seed int64) Config {
	return Config{
		Dice:   2,
		Sides:  6,
		Start:  1,
		Rounds: 3,
		Actors: []string{"p1", "p2"},
		Roller: NewSeededRoller(seed),
	}
}

// RollContext is the context of a roll: the die to roll.
type RollContext struct {
	Die *engine.Entity `json:"die"`
}

// TurnContext is the context of ending a turn.
type TurnContext struct {
	Turn  *engine.Entity `json:"turn"`
	Actor string         `json:"actor"`
}

// Game is an installed dice ruleset.
type Game struct {
	cfg     Config
	Turn    *engine.Entity
	Dice    []*engine.Entity
	Roll    *engine.Action[*engine.Entity, RollContext, int64]
	EndTurn *engine.Action[string, TurnContext, string]
}

// Install registers the dice, the turn tracker, actions, rules and
// triggers on e. Must be called before e.Start.
func Install(e *engine.Engine, cfg Config) (*Game, error) {
	if len(cfg.Actors) == 0 {
		return nil, errors.New("dice: at least one actor is required")
	}
	if cfg.Roller == nil {
		return nil, errors.New("dice: roller is required")
	}
	g := &Game{cfg: cfg}

	for i := 0; i < cfg.Dice; i++ {
		die, err := e.RegisterComponent(engine.Attrs{
			"sides": engine.Plain(ir.Int(cfg.Sides)),
			"value": engine.Plain(ir.Int(cfg.Start)),
			"rolls": engine.Plain(ir.Int(0)),
		}, "die")
		if err != nil {
			return nil, fmt.Errorf("dice: register die %d: %w", i, err)
		}
		g.Dice = append(g.Dice, die)
	}

	turn, err := e.RegisterComponent(engine.Attrs{
		"active": engine.Plain(ir.String(cfg.Actors[0])),
		"round":  engine.Plain(ir.Int(1)),
		"rolled": engine.Plain(ir.Bool(false)),
		"total": engine.Lazy(func(eng *engine.Engine, _ *engine.Entity) ir.Value {
			var sum int64
			for _, die := range eng.Query("die") {
				sum += die.Int("value")
			}
			return ir.Int(sum)
		}),
	}, "turn", "turn")
	if err != nil {
		return nil, fmt.Errorf("dice: register turn: %w", err)
	}
	g.Turn = turn

	g.Roll = &engine.Action[*engine.Entity, RollContext, int64]{
		Name: ActionRoll,
		Context: func(_ *engine.Engine, die *engine.Entity) (RollContext, error) {
			return RollContext{Die: die}, nil
		},
		Execute: func(_ *engine.Engine, c RollContext) (int64, error) {
			v := cfg.Roller.Roll(c.Die.Int("sides"))
			if err := c.Die.Set("value", ir.Int(v)); err != nil {
				return 0, err
			}
			if err := c.Die.Set("rolls", ir.Int(c.Die.Int("rolls")+1)); err != nil {
				return 0, err
			}
			return v, turn.Set("rolled", ir.Bool(true))
		},
		Message: func(c RollContext) string {
			return fmt.Sprintf("Roll die %s (d%d)", c.Die.ID(), c.Die.Int("sides"))
		},
		Log: func(v int64) string { return fmt.Sprintf("rolled %d", v) },
	}

	g.EndTurn = &engine.Action[string, TurnContext, string]{
		Name: ActionEndTurn,
		Context: func(_ *engine.Engine, actor string) (TurnContext, error) {
			return TurnContext{Turn: turn, Actor: actor}, nil
		},
		Execute: func(_ *engine.Engine, c TurnContext) (string, error) {
			return c.Actor, nil
		},
		Message: func(c TurnContext) string { return "End turn" },
		Log:     func(actor string) string { return actor + " ended the turn" },
	}

	if _, err := e.RegisterAction(g.Roll); err != nil {
		return nil, err
	}
	if _, err := e.RegisterAction(g.EndTurn); err != nil {
		return nil, err
	}

	for _, r := range g.rules() {
		if err := e.RegisterRule(r); err != nil {
			return nil, fmt.Errorf("dice: %w", err)
		}
	}

	if err := e.RegisterTrigger(engine.On(TriggerRotate, g.EndTurn, g.rotate)); err != nil {
		return nil, fmt.Errorf("dice: %w", err)
	}
	return g, nil
}

// Over reports whether every round has been played.
func (g *Game) Over() bool {
	return g.Turn.Int("round") > g.cfg.Rounds
}

func (g *Game) rules() []engine.Rule {
	rules := []engine.Rule{
		&engine.PositiveRule{
			ID:         RuleRollEachDie,
			Properties: ir.Object{"rolled": ir.Array{}},
			Handler:    g.offerRolls,
			Callback: func(_ *engine.Engine, props ir.Object, ctx any) error {
				c, ok := ctx.(RollContext)
				if !ok {
					return fmt.Errorf("unexpected roll context %T", ctx)
				}
				rolled, _ := props["rolled"].(ir.Array)
				props["rolled"] = append(rolled, c.Die.Ref())
				return nil
			},
		},
		&engine.PositiveRule{
			ID: RuleEndTurn,
			Handler: func(e *engine.Engine, _ ir.Object) []engine.Candidate {
				if g.Over() || !(g.Turn.Bool("rolled") || g.allKept(e)) {
					return nil
				}
				return []engine.Candidate{engine.Offer(g.Turn.Str("active"), g.EndTurn, g.Turn.Str("active"))}
			},
		},
	}
	if g.cfg.KeepSixes {
		rules = append(rules, &engine.NegativeRule{
			ID: RuleKeepSixes,
			Handler: func(_ *engine.Engine, c engine.Candidate, _ ir.Object) bool {
				die, ok := c.Entrypoint.(*engine.Entity)
				if !ok || c.ActionName() != ActionRoll {
					return true
				}
				return !showsTop(die)
			},
		})
	}
	return rules
}

// offerRolls offers the active actor each die it has not rolled this turn.
func (g *Game) offerRolls(e *engine.Engine, props ir.Object) []engine.Candidate {
	if g.Over() {
		return nil
	}
	rolled := make(map[string]bool)
	if arr, ok := props["rolled"].(ir.Array); ok {
		for _, v := range arr {
			if r, ok := v.(ir.Ref); ok {
				rolled[r.ID()] = true
			}
		}
	}

	actor := g.Turn.Str("active")
	var out []engine.Candidate
	for _, die := range e.Query("die") {
		if !rolled[die.ID()] {
			out = append(out, engine.Offer(actor, g.Roll, die))
		}
	}
	return out
}

// rotate passes the turn to the next actor and clears the per-turn state.
func (g *Game) rotate(e *engine.Engine, c TurnContext) ([]engine.Effect, error) {
	next, wrapped := g.nextActor(c.Actor)
	return []engine.Effect{
		func() error {
			r, err := e.Rule(RuleRollEachDie)
			if err != nil {
				return err
			}
			r.Props()["rolled"] = ir.Array{}
			return nil
		},
		func() error { return c.Turn.Set("rolled", ir.Bool(false)) },
		func() error {
			if !wrapped {
				return nil
			}
			return c.Turn.Set("round", ir.Int(c.Turn.Int("round")+1))
		},
		func() error { return c.Turn.Set("active", ir.String(next)) },
	}, nil
}

// allKept reports whether no die may be rolled because every one shows
// its top face. The turn can then be ended without rolling.
func (g *Game) allKept(e *engine.Engine) bool {
	if !g.cfg.KeepSixes {
		return false
	}
	for _, die := range e.Query("die") {
		if !showsTop(die) {
			return false
		}
	}
	return true
}

func (g *Game) nextActor(actor string) (string, bool) {
	for i, a := range g.cfg.Actors {
		if a == actor {
			j := (i + 1) % len(g.cfg.Actors)
			return g.cfg.Actors[j], j == 0
		}
	}
	return g.cfg.Actors[0], false
}

// showsTop reports whether a die shows its highest face.
func showsTop(die *engine.Entity) bool {
	return die.Int("value") == die.Int("sides")
}
