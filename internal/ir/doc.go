// Package ir provides the value model shared by the engine, the journal and
// every player interface.
//
// This package contains value and wire types only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - game state is integer-only so that state
//     hashes and broadcasts are deterministic
//   - Entity references are a distinct type (Ref) and always project to the
//     token "@<id>"
//   - All JSON tags use snake_case
//   - Object keys serialize in RFC 8785 order
package ir
