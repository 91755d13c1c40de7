package ir

// CommitRecord is the journal row for one committed choice.
//
// Context is the projected action context exactly as it was broadcast.
// StateHash is the hash of the full entity snapshot after the commit and
// everything it caused (triggers, effects, the forced tick).
type CommitRecord struct {
	Game      string `json:"game"`
	Seq       int64  `json:"seq"`
	Token     string `json:"token"`
	Tick      int64  `json:"tick"`
	Actor     string `json:"actor"`
	ChoiceID  string `json:"choice_id"`
	Action    string `json:"action"`
	Context   Object `json:"context"`
	Message   string `json:"message"`
	Log       string `json:"log"`
	Version   int64  `json:"version"`
	StateHash string `json:"state_hash"`
}

// TickRecord is the journal row for one completed broadcast.
type TickRecord struct {
	Game    string    `json:"game"`
	Tick    int64     `json:"tick"`
	Token   string    `json:"token"`
	Version int64     `json:"version"`
	Actors  []string  `json:"actors"`
	Choices int       `json:"choices"`
	Changes ChangeSet `json:"changes"`
}

// GameRecord is the journal header for one game. Replay rebuilds the game
// from Ruleset and Seed and re-commits the journaled choices.
type GameRecord struct {
	ID            string   `json:"id"`
	Ruleset       string   `json:"ruleset"`
	Seed          int64    `json:"seed"`
	Players       []string `json:"players"`
	EngineVersion string   `json:"engine_version"`
	WireVersion   string   `json:"wire_version"`
}
