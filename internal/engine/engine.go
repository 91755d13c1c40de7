package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/beyond/internal/ir"
)

// Default recursion guard limits.
const (
	// DefaultMaxTicksPerCommit bounds the ticks one external call may run.
	DefaultMaxTicksPerCommit = 64

	// DefaultMaxActionDepth bounds action nesting through triggers.
	DefaultMaxActionDepth = 32
)

// State is the engine lifecycle state.
type State int

const (
	// StateNotStarted: registration and mutation only bump the version.
	StateNotStarted State = iota

	// StateIdle: between ticks.
	StateIdle

	// StateComputing: a tick is building the choice table or broadcasting.
	StateComputing
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Journal receives an audit trail of the game. internal/store implements it.
type Journal interface {
	RecordCommit(ctx context.Context, rec ir.CommitRecord) error
	RecordTick(ctx context.Context, rec ir.TickRecord) error
}

// Engine is the single-threaded rule engine.
//
// It owns the entity store, the registries (queries, actions, rules,
// triggers, players), the change log and the current choice table. All
// calls must come from one goroutine; player handlers run synchronously
// inside ticks and may call back into the engine.
//
// INVARIANTS:
//   - version never decreases; every mutation and registration advances it
//   - rules and triggers are evaluated in registration order
//   - choice ids are "choice-0".."choice-n" in candidate order, per tick
//   - a choice id is valid only for the tick that produced it
type Engine struct {
	clock *Clock
	state State
	ctx   context.Context

	entities []*Entity
	named    map[string]*Entity
	queries  map[string]*query
	actions  map[string]ActionHandle
	rules    []Rule
	triggers []*Trigger
	players  []Player

	changes ir.ChangeSet
	choices map[string]*Choice
	order   []string
	ticks   int64
	pending bool

	// Per external call.
	callDepth   int
	actionDepth int
	token       string
	quota       *QuotaEnforcer

	gameID            string
	commits           int64
	tokens            TokenGenerator
	journal           Journal
	duplicates        DuplicatePolicy
	maxTicksPerCommit int
	maxActionDepth    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDuplicatePolicy sets how reused action and query names are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(e *Engine) {
		e.duplicates = p
	}
}

// WithMaxTicksPerCommit sets the tick quota per external call.
//
// Default: 64 (DefaultMaxTicksPerCommit).
// Use a small value in tests that exercise the guard.
func WithMaxTicksPerCommit(n int) Option {
	return func(e *Engine) {
		e.maxTicksPerCommit = n
	}
}

// WithMaxActionDepth sets the maximum action nesting depth.
func WithMaxActionDepth(n int) Option {
	return func(e *Engine) {
		e.maxActionDepth = n
	}
}

// WithTokenGenerator replaces the UUIDv7 commit token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithJournal attaches an audit journal.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithGameID sets the game id stamped on journal rows.
func WithGameID(id string) Option {
	return func(e *Engine) {
		e.gameID = id
	}
}

// New creates an engine in StateNotStarted.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:             NewClock(),
		state:             StateNotStarted,
		named:             make(map[string]*Entity),
		queries:           make(map[string]*query),
		actions:           make(map[string]ActionHandle),
		changes:           make(ir.ChangeSet),
		choices:           make(map[string]*Choice),
		tokens:            UUIDv7Generator{},
		maxTicksPerCommit: DefaultMaxTicksPerCommit,
		maxActionDepth:    DefaultMaxActionDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gameID == "" {
		e.gameID = e.tokens.Generate()
	}
	return e
}

// Start leaves StateNotStarted and runs the first tick.
func (e *Engine) Start(ctx context.Context) error {
	if e.state != StateNotStarted {
		return newError(ErrCodeAlreadyStarted, "engine already started")
	}
	e.ctx = ctx
	e.state = StateIdle
	slog.Info("engine started",
		"game", e.gameID,
		"entities", len(e.entities),
		"rules", len(e.rules),
		"players", len(e.players),
	)

	e.begin()
	defer e.end()
	return e.requestTick(ctx)
}

// Tick runs a tick on demand.
func (e *Engine) Tick(ctx context.Context) error {
	if e.state == StateNotStarted {
		return newError(ErrCodeNotStarted, "tick before start")
	}
	e.begin()
	defer e.end()
	return e.requestTick(ctx)
}

// GameID returns the id stamped on journal rows.
func (e *Engine) GameID() string { return e.gameID }

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Version returns the current global version.
func (e *Engine) Version() int64 { return e.clock.Current() }

// Ticks returns the number of completed broadcasts.
func (e *Engine) Ticks() int64 { return e.ticks }

// Commits returns the number of committed choices.
func (e *Engine) Commits() int64 { return e.commits }

// Changes returns a copy of the pending change log.
func (e *Engine) Changes() ir.ChangeSet { return e.changes.Clone() }

// Token returns the commit token of the call in progress, or "".
func (e *Engine) Token() string { return e.token }

// begin opens (or joins) the external call scope that owns a commit token
// and a tick quota.
func (e *Engine) begin() {
	if e.callDepth == 0 {
		e.token = e.tokens.Generate()
		e.quota = NewQuotaEnforcer(e.maxTicksPerCommit)
	}
	e.callDepth++
}

func (e *Engine) end() {
	e.callDepth--
	if e.callDepth == 0 {
		e.token = ""
		e.quota = nil
	}
}

// baseContext is the context for ticks caused by mutations and
// registrations, which take no context of their own.
func (e *Engine) baseContext() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}
