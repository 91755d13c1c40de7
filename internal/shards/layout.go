package shards

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/roach88/beyond/internal/engine"
	"github.com/roach88/beyond/internal/ir"
)

// Board dimensions. Rows are the horizontal lanes, columns the vertical ones.
const (
	Rows    = 4
	Columns = 5
)

// Lane axes.
const (
	AxisRow    = "row"
	AxisColumn = "column"
)

// Card zones.
const (
	ZoneDeck  = "deck"
	ZoneHand  = "hand"
	ZoneBoard = "board"
)

// shuffledDeck expands the catalog into one deck order for a player.
func shuffledDeck(cat *Catalog, rng *rand.Rand) []CardDef {
	deck := make([]CardDef, 0, cat.DeckSize())
	for _, def := range cat.Cards {
		for i := 0; i < def.Copies; i++ {
			deck = append(deck, def)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

func cardComponent(def CardDef, owner string) engine.Component {
	return engine.Component{
		Type: "card",
		Attrs: engine.Attrs{
			"key":   engine.Plain(ir.String(def.Key)),
			"name":  engine.Plain(ir.String(def.Name)),
			"cost":  engine.Plain(ir.Int(def.Cost)),
			"power": engine.Plain(ir.Int(def.Power)),
			"text":  engine.Plain(ir.String(def.Text)),
			"owner": engine.Plain(ir.String(owner)),
			"zone":  engine.Plain(ir.String(ZoneDeck)),
			"slot":  engine.Plain(ir.Null{}),
		},
	}
}

func cardCount(_ *engine.Engine, self *engine.Entity) ir.Value {
	return ir.Int(int64(len(self.Refs("cards"))))
}

// playerComponent builds a player with its hand, deck and crystal zone.
func playerComponent(name string, seat int, deck []CardDef, maxCrystals int64) engine.Component {
	cards := make([]engine.Component, len(deck))
	for i, def := range deck {
		cards[i] = cardComponent(def, name)
	}
	owner := engine.Plain(ir.String(name))
	return engine.Component{
		Type: "player",
		Name: name,
		Attrs: engine.Attrs{
			"seat":  engine.Plain(ir.Int(int64(seat))),
			"score": engine.Lazy(playerScore),
		},
		Children: map[string]engine.Component{
			"hand": {
				Type: "hand",
				Attrs: engine.Attrs{
					"owner": owner,
					"cards": engine.Plain(ir.Array{}),
					"size":  engine.Lazy(cardCount),
				},
			},
			"deck": {
				Type: "deck",
				Attrs: engine.Attrs{
					"owner": owner,
					"size":  engine.Lazy(cardCount),
				},
				Lists: map[string][]engine.Component{"cards": cards},
			},
			"crystals": {
				Type: "crystal-zone",
				Attrs: engine.Attrs{
					"owner":    owner,
					"crystals": engine.Plain(ir.Int(0)),
					"max":      engine.Plain(ir.Int(maxCrystals)),
				},
			},
		},
	}
}

// boardComponent builds the 9 lanes and the 4×5 slot grid.
func boardComponent() engine.Component {
	var lanes []engine.Component
	for r := 0; r < Rows; r++ {
		lanes = append(lanes, laneComponent(AxisRow, r))
	}
	for c := 0; c < Columns; c++ {
		lanes = append(lanes, laneComponent(AxisColumn, c))
	}

	slots := make([]engine.Component, 0, Rows*Columns)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			slots = append(slots, engine.Component{
				Type: "slot",
				Attrs: engine.Attrs{
					"row":    engine.Plain(ir.Int(int64(r))),
					"column": engine.Plain(ir.Int(int64(c))),
					"card":   engine.Plain(ir.Null{}),
					"occupied": engine.Lazy(func(_ *engine.Engine, self *engine.Entity) ir.Value {
						return ir.Bool(self.RefTo("card") != nil)
					}),
				},
			})
		}
	}

	return engine.Component{
		Type:  "board",
		Name:  "board",
		Lists: map[string][]engine.Component{"lanes": lanes, "slots": slots},
	}
}

func laneComponent(axis string, index int) engine.Component {
	return engine.Component{
		Type: "lane",
		Name: axis + "-" + strconv.Itoa(index),
		Attrs: engine.Attrs{
			"axis":     engine.Plain(ir.String(axis)),
			"index":    engine.Plain(ir.Int(int64(index))),
			"strength": engine.Lazy(laneStrength),
		},
	}
}

// laneSlots returns the slots a lane runs through.
func laneSlots(e *engine.Engine, lane *engine.Entity) []*engine.Entity {
	field := AxisRow
	if lane.Str("axis") == AxisColumn {
		field = AxisColumn
	}
	idx := lane.Int("index")
	var out []*engine.Entity
	for _, s := range e.Query("slot") {
		if s.Int(field) == idx {
			out = append(out, s)
		}
	}
	return out
}

// laneStrength sums the power each player has on the lane.
func laneStrength(e *engine.Engine, self *engine.Entity) ir.Value {
	strength := ir.Object{}
	for _, p := range e.Query("player") {
		strength[p.Name()] = ir.Int(0)
	}
	for _, s := range laneSlots(e, self) {
		card := s.RefTo("card")
		if card == nil {
			continue
		}
		owner := card.Str("owner")
		cur, _ := strength[owner].(ir.Int)
		strength[owner] = cur + ir.Int(card.Int("power"))
	}
	return strength
}

// playerScore counts the lanes where the player is strictly strongest.
func playerScore(e *engine.Engine, self *engine.Entity) ir.Value {
	var won int64
	for _, lane := range e.Query("lane") {
		strength, _ := lane.Get("strength").(ir.Object)
		mine, _ := strength[self.Name()].(ir.Int)
		if mine == 0 {
			continue
		}
		best := true
		for other, v := range strength {
			if other == self.Name() {
				continue
			}
			if theirs, _ := v.(ir.Int); theirs >= mine {
				best = false
				break
			}
		}
		if best {
			won++
		}
	}
	return ir.Int(won)
}

// moveTopCard moves the first card of deck into hand and returns it.
func moveTopCard(deck, hand *engine.Entity) (*engine.Entity, error) {
	cards := deck.Refs("cards")
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %s is empty", deck.ID())
	}
	top := cards[0]
	if err := deck.Set("cards", refArray(cards[1:])); err != nil {
		return nil, err
	}
	if err := hand.Set("cards", refArray(append(hand.Refs("cards"), top))); err != nil {
		return nil, err
	}
	return top, top.Set("zone", ir.String(ZoneHand))
}

func removeCard(hand, card *engine.Entity) error {
	var kept []*engine.Entity
	for _, c := range hand.Refs("cards") {
		if c.ID() != card.ID() {
			kept = append(kept, c)
		}
	}
	return hand.Set("cards", refArray(kept))
}

func refArray(ents []*engine.Entity) ir.Array {
	arr := make(ir.Array, len(ents))
	for i, ent := range ents {
		arr[i] = ent.Ref()
	}
	return arr
}
