package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/state"
)

func TestExportWritesRecordToStdout(t *testing.T) {
	sessionDir := seedSyncedSession(t)

	buf := &bytes.Buffer{}
	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())

	var rec state.ExportRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, state.FormatVersion, rec.Version)
	assert.Equal(t, "total is {{total}}", rec.Content)
	assert.Contains(t, rec.WriterScript, "store.mutate")
	assert.Contains(t, rec.ReaderScript, "store.execute")
	assert.False(t, rec.Timestamp.IsZero())
}

func TestExportWritesFile(t *testing.T) {
	sessionDir := seedSyncedSession(t)
	outPath := filepath.Join(t.TempDir(), "snapshot.json")

	buf := &bytes.Buffer{}
	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "--out", outPath})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())
	assert.Contains(t, buf.String(), "Exported session state to")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var rec state.ExportRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, state.FormatVersion, rec.Version)
}

func TestExportMissingSession(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", "/nonexistent/session"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no session history")
}
