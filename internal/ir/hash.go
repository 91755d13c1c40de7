package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// The version suffix leaves room for algorithm migration.
const (
	DomainState   = "beyond/state/v1"
	DomainContext = "beyond/context/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash hashes a full state snapshot (entity id -> projection).
// Two engines that reached the same state produce the same hash.
func StateHash(snapshot ChangeSet) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// ContextHash hashes a projected action context.
func ContextHash(ctx Value) (string, error) {
	canonical, err := MarshalCanonical(ctx)
	if err != nil {
		return "", fmt.Errorf("ContextHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainContext, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateHash(snapshot ChangeSet) string {
	h, err := StateHash(snapshot)
	if err != nil {
		panic(err)
	}
	return h
}
