// Package shards installs the "Shards of Beyond" card game on the engine.
//
// The card catalog is CUE (cards.cue, embedded) compiled and validated with
// cuelang.org/go. Install builds the board layout:
//
//	per player: player, hand, deck, crystal zone (built as one tree)
//	board:      4 horizontal + 5 vertical lanes, 4×5 slots
//	turn:       the turn tracker
//
// and registers the draw/play/pass actions, their rules and triggers.
// Only the active player is ever offered choices.
package shards
