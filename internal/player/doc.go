// Package player provides engine.Player stand-ins.
//
// Recorder keeps every broadcast it receives. Random is a seeded AI that
// picks uniformly among its current choices; Drive runs a game with Random
// players until nobody has a choice left or a commit limit is reached.
//
// Players only store what they are told during a tick. Committing happens
// outside the broadcast, in Drive or in the caller, so a commit never runs
// while the engine is still notifying other players.
package player
