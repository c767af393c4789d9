package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/session"
	"github.com/roach88/vellum/internal/testutil"
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Scripts shared across the engine tests. The writer is idempotent on
// purpose: replaying it after a store reset rebuilds the same table.
const (
	writerSeed = `async ({ store }) => {
	await store.mutate("CREATE TABLE IF NOT EXISTS t (n INTEGER)");
	await store.mutate("DELETE FROM t");
	await store.mutate("INSERT INTO t (n) VALUES (1), (2)");
	return 'loaded';
}`

	readerTotal = `async ({ store }) => {
	const rs = await store.execute("SELECT SUM(n) AS total FROM t");
	return { total: String(rs[0].values[0][0]) };
}`

	readerCount = `async ({ store }) => {
	const rs = await store.execute("SELECT COUNT(*) AS c FROM t");
	return { c: String(rs[0].values[0][0]) };
}`

	readerEmpty = `async ({ store }) => ({})`

	failingWriter = `async (c) => { throw new Error('boom'); }`
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	sess, err := session.Open(t.TempDir(), session.WithClock(testutil.NewFixedClock(testEpoch, time.Minute)))
	require.NoError(t, err)
	t.Cleanup(func() {
		sess.Close()
	})
	return New(sess, opts...)
}

func TestEngine_State_IdleUntilRunning(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, StateIdle, e.State())
}
