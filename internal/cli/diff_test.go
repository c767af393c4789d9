package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/session"
)

// seedDocumentHistory builds a session whose history is: 0 initial,
// 1 "alpha/beta", 2 "alpha/beta/gamma".
func seedDocumentHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	sess, err := session.Open(dir)
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = sess.SetDocument(ctx, "alpha\nbeta\n", "first draft")
	require.NoError(t, err)
	_, _, err = sess.SetDocument(ctx, "alpha\nbeta\ngamma\n", "second draft")
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	return dir
}

func TestDiffShowsAddedLine(t *testing.T) {
	sessionDir := seedDocumentHistory(t)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "1", "2"})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())

	output := buf.String()
	assert.Contains(t, output, "--- checkpoint 1")
	assert.Contains(t, output, "+++ checkpoint 2")
	assert.Contains(t, output, "+ gamma")
	assert.Contains(t, output, "1 added, 0 removed, 2 unchanged")
}

func TestDiffShowsRemovedLine(t *testing.T) {
	sessionDir := seedDocumentHistory(t)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "2", "1"})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())

	output := buf.String()
	assert.Contains(t, output, "- gamma")
	assert.Contains(t, output, "0 added, 1 removed, 2 unchanged")
}

func TestDiffJSON(t *testing.T) {
	sessionDir := seedDocumentHistory(t)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "1", "2"})

	err := cmd.Execute()
	require.NoError(t, err, buf.String())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result DiffResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, 1, result.From)
	assert.Equal(t, 2, result.To)
	require.Len(t, result.Lines, 3)
	assert.Equal(t, DiffLine{Kind: "unchanged", Text: "alpha"}, result.Lines[0])
	assert.Equal(t, DiffLine{Kind: "added", Text: "gamma"}, result.Lines[2])
	assert.Equal(t, 1, result.Added)
}

func TestDiffOutOfRange(t *testing.T) {
	sessionDir := seedDocumentHistory(t)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "0", "9"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "out of range")
}

func TestDiffBadIndex(t *testing.T) {
	sessionDir := seedDocumentHistory(t)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", sessionDir, "one", "2"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "index must be an integer")
}
