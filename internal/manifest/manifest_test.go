package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest drops a .cue file into a temp dir and returns its path.
func writeManifest(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad_ValidManifest(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:        "sales-report"
	description: "Quarterly sales rollup"
	document:    "total is {{total}}"
	writer:      "async ({ store }) => { await store.mutate('CREATE TABLE t (n INTEGER)'); }"
	reader:      "async ({ store }) => ({ total: '3' })"
	history:     "./sales-session"
}
`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sales-report", m.Name)
	assert.Equal(t, "Quarterly sales rollup", m.Description)
	assert.Equal(t, "total is {{total}}", m.Document)
	assert.Contains(t, m.Writer, "store.mutate")
	assert.Contains(t, m.Reader, "total")
	assert.Equal(t, "./sales-session", m.History)
}

func TestLoad_OptionalFieldsDefaultEmpty(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:     "minimal"
	document: ""
	writer:   "async (c) => {}"
	reader:   "async (c) => ({})"
}
`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, m.Description)
	assert.Empty(t, m.History)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, le.Code)
	assert.Contains(t, le.Message, "not found")
}

func TestLoad_ParseError(t *testing.T) {
	path := writeManifest(t, `session: { name: "broken`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBadCUE, le.Code)
}

func TestLoad_MissingSessionBlock(t *testing.T) {
	path := writeManifest(t, `other: { name: "x" }`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMissingField, le.Code)
	assert.Contains(t, le.Message, "session block")
}

func TestLoad_MissingRequiredField(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:     "no-writer"
	document: "body"
	reader:   "async (c) => ({})"
}
`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMissingField, le.Code)
	assert.Contains(t, le.Message, "session.writer")
}

func TestLoad_WrongFieldType(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:     "typed-wrong"
	document: "body"
	writer:   42
	reader:   "async (c) => ({})"
}
`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeWrongType, le.Code)
	assert.Contains(t, le.Message, "session.writer")
}

func TestLoad_NotConcrete(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:     "abstract"
	document: "body"
	writer:   string
	reader:   "async (c) => ({})"
}
`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotConcrete, le.Code)
}

func TestCompile_FromBuiltValue(t *testing.T) {
	v := cuecontext.New().CompileString(`
session: {
	name:     "inline"
	document: "doc"
	writer:   "async (c) => 'w'"
	reader:   "async (c) => ({})"
}
`)
	require.NoError(t, v.Err())

	m, err := Compile(v.LookupPath(cue.ParsePath("session")))
	require.NoError(t, err)
	assert.Equal(t, "inline", m.Name)
}

func TestLoadError_FormatsPosition(t *testing.T) {
	path := writeManifest(t, `
session: {
	name:     "pos"
	document: "body"
	writer:   true
	reader:   "async (c) => ({})"
}
`)

	_, err := Load(path)
	require.Error(t, err)

	le, ok := AsLoadError(err)
	require.True(t, ok)
	if le.Pos.IsValid() {
		assert.Contains(t, err.Error(), "session.cue:")
	}
	assert.Contains(t, err.Error(), le.Code)
}
