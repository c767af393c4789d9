package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportSnapshot exports a freshly synced session to a file and
// returns the file path.
func exportSnapshot(t *testing.T) string {
	t.Helper()

	sessionDir := seedSyncedSession(t)
	outPath := filepath.Join(t.TempDir(), "snapshot.json")

	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--session", sessionDir, "--out", outPath})
	require.NoError(t, cmd.Execute())

	return outPath
}

func TestImportIntoFreshSession(t *testing.T) {
	snapshot := exportSnapshot(t)
	targetDir := filepath.Join(t.TempDir(), "target")

	buf := &bytes.Buffer{}
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--session", targetDir, snapshot})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())
	assert.Contains(t, buf.String(), "Imported checkpoint 0")

	// The imported record is the session's only checkpoint.
	listBuf := &bytes.Buffer{}
	listCmd := NewHistoryCommand(&RootOptions{Format: "json"})
	listCmd.SetOut(listBuf)
	listCmd.SetArgs([]string{"--session", targetDir})
	require.NoError(t, listCmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(listBuf.Bytes(), &resp))
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entries []HistoryEntry
	require.NoError(t, json.Unmarshal(raw, &entries))

	require.Len(t, entries, 1)
	assert.Equal(t, "imported", entries[0].Description)
}

func TestImportJSON(t *testing.T) {
	snapshot := exportSnapshot(t)
	targetDir := filepath.Join(t.TempDir(), "target")

	buf := &bytes.Buffer{}
	cmd := NewImportCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--session", targetDir, snapshot})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ImportResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, 0, result.Checkpoint)
	assert.Equal(t, "imported", result.Description)
	assert.NotEmpty(t, result.Session)
	assert.Len(t, result.ID, 64)
}

func TestImportInvalidFile(t *testing.T) {
	badFile := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badFile, []byte("not json at all"), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", t.TempDir(), badFile})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid export file")
}

func TestImportUnsupportedVersion(t *testing.T) {
	record := filepath.Join(t.TempDir(), "future.json")
	require.NoError(t, os.WriteFile(record, []byte(`{"version": 99, "content": "doc"}`), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", t.TempDir(), record})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unsupported export version")
}

func TestImportMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", t.TempDir(), "/nonexistent/snapshot.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read export file")
}
