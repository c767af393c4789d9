package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCheckpoint is the domain-separation prefix for checkpoint IDs.
// The version suffix enables future algorithm migration.
const DomainCheckpoint = "vellum/checkpoint/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckpointID computes the content-addressed ID for a checkpoint.
// Only the four text fields participate: timestamps would break identity
// across replays, and variables are derived data (and may hold floats,
// which canonical JSON rejects).
func CheckpointID(content, writer, reader, description string) (string, error) {
	obj := map[string]any{
		"content":     content,
		"writer":      writer,
		"reader":      reader,
		"description": description,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CheckpointID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainCheckpoint, canonical), nil
}

// MustCheckpointID is like CheckpointID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCheckpointID(content, writer, reader, description string) string {
	id, err := CheckpointID(content, writer, reader, description)
	if err != nil {
		panic(err)
	}
	return id
}
