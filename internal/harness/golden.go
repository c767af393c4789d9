package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vellum/internal/state"
)

// TraceSnapshot captures a scenario execution for golden comparison.
// All fields use canonical JSON serialization, so key order and string
// escaping are stable across runs and platforms.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []StepRecord `json:"trace"`
	Document     string       `json:"document"`
	Remainder    string       `json:"remainder,omitempty"`
	History      []string     `json:"history"`
}

// toCanonicalMap converts a TraceSnapshot to plain maps and slices for
// state.MarshalCanonical, which only accepts strings, ints, bools,
// slices, and maps. Failure details and checkpoint IDs are left out:
// script engines word their errors differently across versions, and
// hashes add nothing a description does not.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, rec := range s.Trace {
		m := map[string]any{
			"step":    rec.Step,
			"op":      rec.Op,
			"outcome": rec.Outcome,
		}
		if rec.Checkpoint >= 0 {
			m["checkpoint"] = rec.Checkpoint
		}
		if rec.Document != "" {
			m["document"] = rec.Document
		}
		if len(rec.Variables) > 0 {
			vars := make(map[string]any, len(rec.Variables))
			for name, val := range rec.Variables {
				vars[name] = val
			}
			m["variables"] = vars
		}
		if len(rec.Directives) > 0 {
			m["directives"] = toAnySlice(rec.Directives)
		}
		if len(rec.Unterminated) > 0 {
			m["unterminated"] = toAnySlice(rec.Unterminated)
		}
		if rec.Description != "" {
			m["description"] = rec.Description
		}
		if rec.Diff != "" {
			m["diff"] = rec.Diff
		}
		if rec.Version > 0 {
			m["version"] = rec.Version
		}
		if rec.ReplayFailed {
			m["replay_failed"] = true
		}
		traceList[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"document":      s.Document,
		"history":       toAnySlice(s.History),
	}
	if s.Remainder != "" {
		out["remainder"] = s.Remainder
	}
	return out
}

// toAnySlice widens a string slice for the canonical encoder.
func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against a golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails. Test failure (via
// goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's snapshot against a golden
// file. This is useful when you've already run a scenario and want to
// compare the result without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Document:     result.Document,
		Remainder:    result.Remainder,
		History:      result.History,
	}

	traceJSON, err := state.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
