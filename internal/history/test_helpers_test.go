package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/vellum/internal/state"
)

// createTestLog opens a checkpoint log in a temporary directory and
// registers cleanup.
func createTestLog(t *testing.T) *Log {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	t.Cleanup(func() {
		l.Close()
	})
	return l
}

// sampleCheckpoint builds a checkpoint with distinguishable fields.
func sampleCheckpoint(desc string) state.Checkpoint {
	content := "# Report for " + desc + "\n\nvalue={{x}}\n"
	writer := "async ({ store }) => { await store.mutate('CREATE TABLE t (n)'); }"
	reader := "async ({ store }) => ({ x: '5' })"
	return state.Checkpoint{
		ID:           state.MustCheckpointID(content, writer, reader, desc),
		Content:      content,
		WriterScript: writer,
		ReaderScript: reader,
		Variables: state.VariableSet{
			"x": state.Text("5"),
		},
		Description: desc,
		Timestamp:   time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}
}

// mustAppend appends a checkpoint and fails the test on error.
func mustAppend(t *testing.T, l *Log, cp state.Checkpoint) int {
	t.Helper()

	idx, err := l.Append(context.Background(), cp)
	if err != nil {
		t.Fatalf("failed to append checkpoint: %v", err)
	}
	return idx
}
