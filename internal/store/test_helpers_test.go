package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a file-backed store in a temp directory.
// The store is closed automatically when the test finishes.
func createTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scratch.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// createMemoryStore creates an in-memory store for tests that do not
// need a file.
func createMemoryStore(t *testing.T) *Store {
	t.Helper()

	st, err := OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// mustMutate runs a statement that the test requires to succeed.
func mustMutate(t *testing.T, st *Store, stmt string, params ...any) {
	t.Helper()

	if _, err := st.Mutate(context.Background(), stmt, params...); err != nil {
		t.Fatalf("mutate %q: %v", stmt, err)
	}
}
