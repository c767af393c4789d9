package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// totalsManifest drives most CLI tests: the writer seeds a two-row
// table, the reader binds their sum, and the document renders it.
const totalsManifest = `session: {
	name:     "totals"
	document: "total is {{total}}"
	writer:   "async ({ store }) => { await store.mutate('CREATE TABLE IF NOT EXISTS t (n INTEGER)'); await store.mutate('DELETE FROM t'); await store.mutate('INSERT INTO t (n) VALUES (1), (2)'); return null; }"
	reader:   "async ({ store }) => { const rs = await store.execute('SELECT SUM(n) AS total FROM t'); return { total: String(rs[0].values[0][0]) }; }"
}
`

// failingManifest has a writer that always throws.
const failingManifest = `session: {
	name:     "broken"
	document: "doc"
	writer:   "async (c) => { throw new Error('boom'); }"
	reader:   "async (c) => ({})"
}
`

// writeCLIManifest drops manifest source into a fresh temp dir and
// returns the manifest path plus a session directory under the same
// root.
func writeCLIManifest(t *testing.T, src string) (manifestPath, sessionDir string) {
	t.Helper()

	dir := t.TempDir()
	manifestPath = filepath.Join(dir, "session.cue")
	require.NoError(t, os.WriteFile(manifestPath, []byte(src), 0o644))
	return manifestPath, filepath.Join(dir, "state")
}

// seedSyncedSession runs one sync through the run command and returns
// the session directory. The resulting history is: 0 initial,
// 1 manifest totals, 2 sync.
func seedSyncedSession(t *testing.T) string {
	t.Helper()

	manifestPath, sessionDir := writeCLIManifest(t, totalsManifest)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{manifestPath, "--session", sessionDir})
	require.NoError(t, cmd.Execute(), buf.String())

	return sessionDir
}
