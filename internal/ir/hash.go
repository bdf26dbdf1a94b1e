package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "sidebearing/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotID computes the content-addressed id of a snapshot.
// Two snapshots with the same version and rules always share an id,
// regardless of map iteration order.
func SnapshotID(s Snapshot) (string, error) {
	canonical, err := s.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("SnapshotID: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustSnapshotID is like SnapshotID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshotID(s Snapshot) string {
	id, err := SnapshotID(s)
	if err != nil {
		panic(err)
	}
	return id
}
