package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/vellum/internal/state"
)

// marshalVariables converts a VariableSet to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled so document fragments
// held in variables survive the round trip byte-for-byte.
func marshalVariables(vars state.VariableSet) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vars); err != nil {
		return "", fmt.Errorf("marshal variables: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalVariables parses JSON TEXT to a VariableSet.
func unmarshalVariables(data string) (state.VariableSet, error) {
	if data == "" || data == "{}" || data == "null" {
		return state.VariableSet{}, nil
	}
	var vars state.VariableSet
	if err := json.Unmarshal([]byte(data), &vars); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}
	return vars, nil
}

// formatTimestamp renders a checkpoint time as UTC RFC 3339 text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp reads a stored created_at value.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
