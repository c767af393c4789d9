package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a final-state assertion fails.
// It includes the step trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []StepRecord // Executed steps for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, rec := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s: %s\n", rec.Step, rec.Op, rec.Outcome)
		}
	}

	return buf.String()
}

// checkExpect validates a step's outcome against its expect clause and
// records any mismatch. A step without a clause must simply succeed.
func checkExpect(result *Result, seq int, step Step, rec StepRecord) {
	want := step.Expect
	if want == nil {
		if rec.Outcome != "ok" {
			result.AddError(fmt.Sprintf("step %d (%s): expected success, got %s: %s",
				seq, step.Op, rec.Outcome, rec.Detail))
		}
		return
	}

	wantOutcome := want.Error
	if wantOutcome == "" {
		wantOutcome = "ok"
	}
	if rec.Outcome != wantOutcome {
		result.AddError(fmt.Sprintf("step %d (%s): expected outcome %q, got %q: %s",
			seq, step.Op, wantOutcome, rec.Outcome, rec.Detail))
	}

	if want.Checkpoint > 0 && rec.Checkpoint != want.Checkpoint {
		result.AddError(fmt.Sprintf("step %d (%s): expected checkpoint %d, got %d",
			seq, step.Op, want.Checkpoint, rec.Checkpoint))
	}

	for _, name := range sortedNames(want.Variables) {
		got, ok := rec.Variables[name]
		if !ok {
			result.AddError(fmt.Sprintf("step %d (%s): variable %q missing, want %q",
				seq, step.Op, name, want.Variables[name]))
			continue
		}
		if got != want.Variables[name] {
			result.AddError(fmt.Sprintf("step %d (%s): variable %q = %q, want %q",
				seq, step.Op, name, got, want.Variables[name]))
		}
	}

	if len(want.Directives) > 0 && !slices.Equal(want.Directives, rec.Directives) {
		result.AddError(fmt.Sprintf("step %d (%s): directives %v, want %v",
			seq, step.Op, rec.Directives, want.Directives))
	}
}

// sortedNames returns map keys in sorted order for deterministic error
// reporting.
func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EvaluateAssertions evaluates all assertions against the final result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertHistoryCount:
			err = assertHistoryCount(result, assertion)
		case AssertDocumentContains:
			err = assertDocumentContains(result, assertion)
		case AssertVariables:
			err = assertVariables(result, assertion)
		case AssertRemainderContains:
			err = assertRemainderContains(result, assertion)
		case AssertFetchCount:
			err = assertFetchCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertHistoryCount checks the checkpoint log holds exactly the
// expected number of entries.
func assertHistoryCount(result *Result, assertion Assertion) error {
	if len(result.History) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistoryCount,
		Expected: fmt.Sprintf("%d checkpoints", assertion.Count),
		Actual:   fmt.Sprintf("%d checkpoints: %v", len(result.History), result.History),
		Trace:    result.Trace,
	}
}

// assertDocumentContains checks the final rendered document contains
// the expected substring.
func assertDocumentContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.Document, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDocumentContains,
		Expected: fmt.Sprintf("document containing %q", assertion.Text),
		Actual:   fmt.Sprintf("document %q", result.Document),
		Trace:    result.Trace,
	}
}

// assertVariables checks the final variable set contains the expected
// renderings (subset semantics, only listed names are checked).
func assertVariables(result *Result, assertion Assertion) error {
	for _, name := range sortedNames(assertion.Values) {
		want := assertion.Values[name]
		got, ok := result.Variables[name]
		if !ok {
			return &AssertionError{
				Type:     AssertVariables,
				Expected: fmt.Sprintf("variable %q = %q", name, want),
				Actual:   fmt.Sprintf("variable %q not present in %v", name, sortedNames(result.Variables)),
				Trace:    result.Trace,
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertVariables,
				Expected: fmt.Sprintf("variable %q = %q", name, want),
				Actual:   fmt.Sprintf("variable %q = %q", name, got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertRemainderContains checks the parser remainder contains the
// expected substring.
func assertRemainderContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.Remainder, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRemainderContains,
		Expected: fmt.Sprintf("remainder containing %q", assertion.Text),
		Actual:   fmt.Sprintf("remainder %q", result.Remainder),
		Trace:    result.Trace,
	}
}

// assertFetchCount checks fetchExternal was called exactly the expected
// number of times.
func assertFetchCount(result *Result, assertion Assertion) error {
	if result.FetchCalls == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFetchCount,
		Expected: fmt.Sprintf("%d fetch calls", assertion.Count),
		Actual:   fmt.Sprintf("%d fetch calls", result.FetchCalls),
		Trace:    result.Trace,
	}
}
