// Package engine implements the beyond rule engine.
//
// The engine holds a store of entities (components) with plain and lazy
// attributes, a registry of named queries, actions, rules and triggers, and
// the set of players. Each tick it evaluates the rules into a choice table
// and broadcasts every player its share of the table together with the
// changes made since the previous broadcast. Players commit choices by id;
// a commit runs the action, its triggers, and a fresh tick.
//
// ARCHITECTURE:
//
// Single-threaded, re-entrant:
// Every call runs on the caller's goroutine. Player handlers run inside the
// tick and may commit from there. Such a commit does not recurse into a new
// tick: it invalidates the running tick's table, and the tick repeats once
// the broadcast is done.
//
// Tick Flow:
// 1. Positive rules propose candidates (actor, action, entrypoint)
// 2. Negative rules veto candidates
// 3. Survivors get contexts and ids choice-0..choice-n
// 4. The change log is detached and broadcast with each actor's choices
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// One version counter per engine, advanced by every mutation and
// registration. Lazy attributes and queries memoize (version, value).
//
// Deterministic Scheduling:
// Rules and triggers run in registration order. Ids are assigned from
// counters. No randomness, no concurrency, no wall clock.
//
// Recursion Guard:
// Every external call gets a commit token. Ticks under one token are
// bounded by MaxTicksPerCommit and action nesting by MaxActionDepth.
package engine
