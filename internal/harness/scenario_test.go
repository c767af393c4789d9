package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes scenario YAML to a temp file and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	content := `
name: load_check
description: "Exercises the loader"
document: "Total: {{total}}"
writer: "async ({ store }) => 'done'"
reader: "async ({ store }) => ({})"
fetch:
  - url: "https://feed.test/rate"
    body: "1.0786"
steps:
  - op: sync
    expect:
      checkpoint: 2
      variables:
        total: "3"
  - op: feed
    text: "some streamed prose"
  - op: restore
    index: 1
assertions:
  - type: history_count
    count: 3
  - type: document_contains
    text: "Total:"
`
	scenario, err := LoadScenario(writeScenario(t, content))
	require.NoError(t, err)

	assert.Equal(t, "load_check", scenario.Name)
	assert.Equal(t, "Exercises the loader", scenario.Description)
	assert.Equal(t, "Total: {{total}}", scenario.Document)
	assert.Len(t, scenario.Fetch, 1)
	assert.Len(t, scenario.Steps, 3)
	assert.Len(t, scenario.Assertions, 2)
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.Equal(t, 2, scenario.Steps[0].Expect.Checkpoint)
	assert.Equal(t, "3", scenario.Steps[0].Expect.Variables["total"])
	assert.Equal(t, 1, scenario.Steps[2].Index)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	// "step:" instead of "steps:" must fail loudly, not load an empty
	// scenario.
	content := `
name: typo
description: "Typo in a field name"
step:
  - op: sync
assertions:
  - type: history_count
    count: 1
`
	_, err := LoadScenario(writeScenario(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingName(t *testing.T) {
	content := `
description: "No name"
steps:
  - op: sync
assertions:
  - type: history_count
    count: 1
`
	_, err := LoadScenario(writeScenario(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing_description",
			content: `
name: t
steps:
  - op: sync
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "description is required",
		},
		{
			name: "empty_steps",
			content: `
name: t
description: "d"
steps: []
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "steps list is required",
		},
		{
			name: "empty_assertions",
			content: `
name: t
description: "d"
steps:
  - op: sync
assertions: []
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown_op",
			content: `
name: t
description: "d"
steps:
  - op: jump
assertions:
  - type: history_count
    count: 1
`,
			wantErr: `steps[0]: unknown op "jump"`,
		},
		{
			name: "feed_without_text",
			content: `
name: t
description: "d"
steps:
  - op: feed
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "text is required for feed",
		},
		{
			name: "edit_without_fields",
			content: `
name: t
description: "d"
steps:
  - op: edit
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "edit requires document, writer, or reader",
		},
		{
			name: "empty_expect_clause",
			content: `
name: t
description: "d"
steps:
  - op: sync
    expect: {}
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "expect clause is empty",
		},
		{
			name: "fetch_stub_conflict",
			content: `
name: t
description: "d"
fetch:
  - url: "https://feed.test/rate"
    body: "1.0786"
    error: "unreachable"
steps:
  - op: sync
assertions:
  - type: history_count
    count: 1
`,
			wantErr: "body and error are mutually exclusive",
		},
		{
			name: "history_count_zero",
			content: `
name: t
description: "d"
steps:
  - op: sync
assertions:
  - type: history_count
    count: 0
`,
			wantErr: "count must be at least 1",
		},
		{
			name: "contains_without_text",
			content: `
name: t
description: "d"
steps:
  - op: sync
assertions:
  - type: document_contains
`,
			wantErr: "text is required for document_contains",
		},
		{
			name: "unknown_assertion_type",
			content: `
name: t
description: "d"
steps:
  - op: sync
assertions:
  - type: trace_matches
`,
			wantErr: `unknown assertion type "trace_matches"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
