// Package dice is a small turn-based dice ruleset for the engine.
//
// Each actor in turn may roll every die once, then end the turn. With
// KeepSixes set, dice showing their top face (a six on a d6) cannot be
// rolled again. The game ends after a fixed number of rounds.
package dice
