package shards

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

// Action, rule and trigger names.
const (
	ActionDraw = "draw"
	ActionPlay = "play"
	ActionPass = "pass"

	RuleDrawOnce   = "draw-once"
	RulePlayCard   = "play-card"
	RulePass       = "pass"
	RuleAffordable = "affordable"

	TriggerMarkDrawn = "mark-drawn"
	TriggerRotate    = "rotate-turn"
	TriggerTally     = "tally"
)

// Config describes one game.
type Config struct {
	Players     []string
	Seed        int64
	HandSize    int
	MaxCrystals int64
	MaxTurns    int64
	Catalog     *Catalog
}

// DefaultConfig is a two-player game on the embedded catalog.
func DefaultConfig(seed int64) (Config, error) {
	cat, err := DefaultCatalog()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Players:     []string{"p1", "p2"},
		Seed:        seed,
		HandSize:    3,
		MaxCrystals: 10,
		MaxTurns:    20,
		Catalog:     cat,
	}, nil
}

// Placement is the entrypoint of a play: a hand card and an empty slot.
type Placement struct {
	Card *engine.Entity
	Slot *engine.Entity
}

// DrawContext is the context of a draw.
type DrawContext struct {
	Player *engine.Entity `json:"player"`
	Deck   *engine.Entity `json:"deck"`
	Hand   *engine.Entity `json:"hand"`
}

// PlayContext is the context of a play.
type PlayContext struct {
	Player   *engine.Entity `json:"player"`
	Card     *engine.Entity `json:"card"`
	Slot     *engine.Entity `json:"slot"`
	Crystals *engine.Entity `json:"crystals"`
}

// PassContext is the context of a pass.
type PassContext struct {
	Player *engine.Entity `json:"player"`
	Turn   *engine.Entity `json:"turn"`
}

// Game is an installed Shards of Beyond ruleset.
type Game struct {
	cfg   Config
	Turn  *engine.Entity
	Board *engine.Entity

	Draw *engine.Action[*engine.Entity, DrawContext, *engine.Entity]
	Play *engine.Action[Placement, PlayContext, *engine.Entity]
	Pass *engine.Action[*engine.Entity, PassContext, string]
}

// Install builds the layout, deals opening hands and registers the
// actions, rules and triggers on e. Must be called before e.Start.
func Install(e *engine.Engine, cfg Config) (*Game, error) {
	if len(cfg.Players) < 2 {
		return nil, errors.New("shards: at least two players are required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("shards: catalog is required")
	}
	g := &Game{cfg: cfg}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0x7368617264))

	for i, name := range cfg.Players {
		deck := shuffledDeck(cfg.Catalog, rng)
		if _, err := e.Build(playerComponent(name, i, deck, cfg.MaxCrystals)); err != nil {
			return nil, fmt.Errorf("shards: player %s: %w", name, err)
		}
	}

	board, err := e.Build(boardComponent())
	if err != nil {
		return nil, fmt.Errorf("shards: board: %w", err)
	}
	g.Board = board

	turn, err := e.RegisterComponent(engine.Attrs{
		"active":  engine.Plain(ir.String(cfg.Players[0])),
		"number":  engine.Plain(ir.Int(1)),
		"drawn":   engine.Plain(ir.Bool(false)),
		"actions": engine.Plain(ir.Int(0)),
		"over": engine.Lazy(func(_ *engine.Engine, self *engine.Entity) ir.Value {
			return ir.Bool(self.Int("number") > cfg.MaxTurns)
		}),
	}, "turn", "turn")
	if err != nil {
		return nil, fmt.Errorf("shards: turn: %w", err)
	}
	g.Turn = turn

	for _, name := range cfg.Players {
		p := e.Named(name)
		for i := 0; i < cfg.HandSize; i++ {
			if _, err := moveTopCard(p.RefTo("deck"), p.RefTo("hand")); err != nil {
				return nil, fmt.Errorf("shards: opening hand %s: %w", name, err)
			}
		}
	}
	if err := g.refreshCrystals(e.Named(cfg.Players[0])); err != nil {
		return nil, err
	}

	g.defineActions()
	for _, a := range []engine.ActionHandle{g.Draw, g.Play, g.Pass} {
		if _, err := e.RegisterAction(a); err != nil {
			return nil, fmt.Errorf("shards: %w", err)
		}
	}
	for _, r := range g.rules() {
		if err := e.RegisterRule(r); err != nil {
			return nil, fmt.Errorf("shards: %w", err)
		}
	}
	for _, t := range g.triggers() {
		if err := e.RegisterTrigger(t); err != nil {
			return nil, fmt.Errorf("shards: %w", err)
		}
	}
	return g, nil
}

// Active returns the player whose turn it is.
func (g *Game) Active(e *engine.Engine) *engine.Entity {
	return e.Named(g.Turn.Str("active"))
}

// Over reports whether the turn limit has been reached.
func (g *Game) Over() bool {
	return g.Turn.Bool("over")
}

// Scores returns each player's lane count.
func (g *Game) Scores(e *engine.Engine) map[string]int64 {
	out := make(map[string]int64, len(g.cfg.Players))
	for _, name := range g.cfg.Players {
		out[name] = e.Named(name).Int("score")
	}
	return out
}

func (g *Game) defineActions() {
	g.Draw = &engine.Action[*engine.Entity, DrawContext, *engine.Entity]{
		Name: ActionDraw,
		Context: func(_ *engine.Engine, p *engine.Entity) (DrawContext, error) {
			return DrawContext{Player: p, Deck: p.RefTo("deck"), Hand: p.RefTo("hand")}, nil
		},
		Execute: func(_ *engine.Engine, c DrawContext) (*engine.Entity, error) {
			return moveTopCard(c.Deck, c.Hand)
		},
		Message: func(DrawContext) string { return "Draw a card" },
		Log:     func(card *engine.Entity) string { return "drew " + card.Str("name") },
	}

	g.Play = &engine.Action[Placement, PlayContext, *engine.Entity]{
		Name: ActionPlay,
		Context: func(e *engine.Engine, pl Placement) (PlayContext, error) {
			p := e.Named(pl.Card.Str("owner"))
			if p == nil {
				return PlayContext{}, fmt.Errorf("card %s has no owner", pl.Card.ID())
			}
			return PlayContext{Player: p, Card: pl.Card, Slot: pl.Slot, Crystals: p.RefTo("crystals")}, nil
		},
		Execute: func(_ *engine.Engine, c PlayContext) (*engine.Entity, error) {
			if err := removeCard(c.Player.RefTo("hand"), c.Card); err != nil {
				return nil, err
			}
			if err := c.Slot.Set("card", c.Card.Ref()); err != nil {
				return nil, err
			}
			if err := c.Card.Set("slot", c.Slot.Ref()); err != nil {
				return nil, err
			}
			if err := c.Card.Set("zone", ir.String(ZoneBoard)); err != nil {
				return nil, err
			}
			left := c.Crystals.Int("crystals") - c.Card.Int("cost")
			return c.Card, c.Crystals.Set("crystals", ir.Int(left))
		},
		Message: func(c PlayContext) string {
			return fmt.Sprintf("Play %s at row %d, column %d",
				c.Card.Str("name"), c.Slot.Int("row"), c.Slot.Int("column"))
		},
		Log: func(card *engine.Entity) string { return "played " + card.Str("name") },
	}

	g.Pass = &engine.Action[*engine.Entity, PassContext, string]{
		Name: ActionPass,
		Context: func(_ *engine.Engine, p *engine.Entity) (PassContext, error) {
			return PassContext{Player: p, Turn: g.Turn}, nil
		},
		Execute: func(_ *engine.Engine, c PassContext) (string, error) {
			return c.Player.Name(), nil
		},
		Message: func(PassContext) string { return "Pass" },
		Log:     func(name string) string { return name + " passed" },
	}
}

func (g *Game) rules() []engine.Rule {
	return []engine.Rule{
		&engine.PositiveRule{
			ID: RuleDrawOnce,
			Handler: func(e *engine.Engine, _ ir.Object) []engine.Candidate {
				if g.Over() || g.Turn.Bool("drawn") {
					return nil
				}
				p := g.Active(e)
				if p.RefTo("deck").Int("size") == 0 {
					return nil
				}
				return []engine.Candidate{engine.Offer(p.Name(), g.Draw, p)}
			},
		},
		&engine.PositiveRule{
			ID: RulePlayCard,
			Handler: func(e *engine.Engine, _ ir.Object) []engine.Candidate {
				if g.Over() {
					return nil
				}
				p := g.Active(e)
				var out []engine.Candidate
				for _, card := range p.RefTo("hand").Refs("cards") {
					for _, slot := range e.Query("slot") {
						if slot.Bool("occupied") {
							continue
						}
						out = append(out, engine.Offer(p.Name(), g.Play, Placement{Card: card, Slot: slot}))
					}
				}
				return out
			},
		},
		&engine.PositiveRule{
			ID: RulePass,
			Handler: func(e *engine.Engine, _ ir.Object) []engine.Candidate {
				if g.Over() {
					return nil
				}
				p := g.Active(e)
				return []engine.Candidate{engine.Offer(p.Name(), g.Pass, p)}
			},
		},
		&engine.NegativeRule{
			ID: RuleAffordable,
			Handler: func(e *engine.Engine, c engine.Candidate, _ ir.Object) bool {
				pl, ok := c.Entrypoint.(Placement)
				if !ok {
					return true
				}
				owner := e.Named(pl.Card.Str("owner"))
				return pl.Card.Int("cost") <= owner.RefTo("crystals").Int("crystals")
			},
		},
	}
}

func (g *Game) triggers() []engine.Trigger {
	return []engine.Trigger{
		engine.On(TriggerMarkDrawn, g.Draw, func(_ *engine.Engine, _ DrawContext) ([]engine.Effect, error) {
			return []engine.Effect{
				func() error { return g.Turn.Set("drawn", ir.Bool(true)) },
			}, nil
		}),
		engine.On(TriggerRotate, g.Pass, func(e *engine.Engine, c PassContext) ([]engine.Effect, error) {
			next := e.Named(g.nextPlayer(c.Player.Name()))
			return []engine.Effect{
				func() error { return c.Turn.Set("number", ir.Int(c.Turn.Int("number")+1)) },
				func() error { return c.Turn.Set("drawn", ir.Bool(false)) },
				func() error { return c.Turn.Set("active", ir.String(next.Name())) },
				func() error { return g.refreshCrystals(next) },
			}, nil
		}),
		{
			Name: TriggerTally,
			Execute: func(_ *engine.Engine, _ string, _ any) ([]engine.Effect, error) {
				return []engine.Effect{
					func() error { return g.Turn.Set("actions", ir.Int(g.Turn.Int("actions")+1)) },
				}, nil
			},
		},
	}
}

// refreshCrystals fills a player's crystal zone for the current round.
func (g *Game) refreshCrystals(p *engine.Entity) error {
	round := (g.Turn.Int("number") + 1) / 2
	zone := p.RefTo("crystals")
	return zone.Set("crystals", ir.Int(min(round, zone.Int("max"))))
}

func (g *Game) nextPlayer(name string) string {
	for i, p := range g.cfg.Players {
		if p == name {
			return g.cfg.Players[(i+1)%len(g.cfg.Players)]
		}
	}
	return g.cfg.Players[0]
}
