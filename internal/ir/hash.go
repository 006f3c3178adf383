package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot  = "storylet/snapshot/v1"
	DomainEquipment = "storylet/equipment/v1"
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

// SnapshotDigest returns a stable digest of a character's qualities.
// Two snapshots with equal states produce equal digests regardless of map order.
func SnapshotDigest(q PlayerQualities) (string, error) {
	if q == nil {
		q = PlayerQualities{}
	}
	canonical, err := MarshalCanonical(q)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// EquipmentDigest returns a stable digest of an equipment map.
func EquipmentDigest(e Equipment) (string, error) {
	if e == nil {
		e = Equipment{}
	}
	canonical, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("EquipmentDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEquipment, canonical), nil
}

// MustSnapshotDigest is like SnapshotDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshotDigest(q PlayerQualities) string {
	d, err := SnapshotDigest(q)
	if err != nil {
		panic(err)
	}
	return d
}
