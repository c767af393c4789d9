package store

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if st.DB() == nil {
		t.Fatal("DB() returned nil")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	st1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	st1.Close()

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	st2.Close()
}

func TestOpenAppliesPragmas(t *testing.T) {
	st := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"foreign_keys": "1",
		"busy_timeout": "5000",
	}

	for name, expected := range checks {
		if err := st.verifyPragma(name, expected); err != nil {
			t.Errorf("pragma %s: %v", name, err)
		}
	}
}

func TestCloseIsSafeTwice(t *testing.T) {
	st, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	// database/sql tolerates repeated Close
	if err := st.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
