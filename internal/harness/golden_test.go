package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/state"
)

// TestGoldenScenarios snapshots every scenario under testdata/scenarios
// against its golden trace. Fixed clock and canned fetches keep the
// snapshots byte-stable; regenerate after intentional changes with
//
//	go test ./internal/harness -update
func TestGoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario fixtures found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err, "failed to load scenario from %s", path)

			// The golden file is named after the scenario, so the two must
			// agree for the fixture to be found.
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "totals_pipeline.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.NoError(t, AssertGolden(t, scenario.Name, result))
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "determinism",
		Trace: []StepRecord{
			{Step: 1, Op: "sync", Outcome: "ok", Checkpoint: 2,
				Document: "Total: 3", Variables: map[string]string{"total": "3", "rate": "1.0"}},
			{Step: 2, Op: "feed", Outcome: "ok", Checkpoint: -1, Directives: []string{"reader"}},
		},
		Document: "Total: 3",
		History:  []string{"initial", "sync"},
	}

	canonicalMap := snapshot.toCanonicalMap()
	json1, err := state.MarshalCanonical(canonicalMap)
	require.NoError(t, err)

	json2, err := state.MarshalCanonical(canonicalMap)
	require.NoError(t, err)

	require.Equal(t, json1, json2, "canonical JSON must be deterministic")
}

func TestTraceSnapshotJSON(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "snapshot_format",
		Trace: []StepRecord{
			{Step: 1, Op: "sync", Outcome: "ok", Checkpoint: 2,
				Document: "Total: 3", Variables: map[string]string{"total": "3"}},
			{Step: 2, Op: "restore", Outcome: "restore_failed",
				Detail: "index 9 out of range", Checkpoint: -1},
		},
		Document:  "Total: 3",
		Remainder: "prose\n",
		History:   []string{"initial", "sync"},
	}

	jsonBytes, err := state.MarshalCanonical(snapshot.toCanonicalMap())
	require.NoError(t, err)

	jsonStr := string(jsonBytes)
	require.Contains(t, jsonStr, `"scenario_name":"snapshot_format"`)
	require.Contains(t, jsonStr, `"trace":[`)
	require.Contains(t, jsonStr, `"checkpoint":2`)
	require.Contains(t, jsonStr, `"variables":{"total":"3"}`)
	require.Contains(t, jsonStr, `"remainder":"prose\n"`)

	// Failure details stay out of snapshots, and a step that touched no
	// checkpoint has no checkpoint key.
	assert.NotContains(t, jsonStr, `"detail"`)
	assert.NotContains(t, jsonStr, "out of range")
	assert.NotContains(t, jsonStr, `"checkpoint":-1`)
}
