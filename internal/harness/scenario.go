package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end pipeline test scenario.
// A scenario opens a fresh session, seeds it with the given document and
// scripts, then executes its steps in order, validating per-step
// outcomes and the final session state.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name for trace comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the initial document content, committed together with
	// the scripts as the seed checkpoint.
	Document string `yaml:"document,omitempty"`

	// Writer is the writer script source.
	Writer string `yaml:"writer,omitempty"`

	// Reader is the reader script source.
	Reader string `yaml:"reader,omitempty"`

	// Fetch lists canned fetchExternal responses. A URL not listed here
	// fails, so scenarios notice unexpected fetches.
	Fetch []FetchStub `yaml:"fetch,omitempty"`

	// Steps contains the ordered operations to execute.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final session state after all steps ran.
	// Supported types: history_count, document_contains, variables,
	// remainder_contains, fetch_count.
	Assertions []Assertion `yaml:"assertions"`
}

// FetchStub cans one fetchExternal response.
type FetchStub struct {
	// URL keys the stub; matched exactly.
	URL string `yaml:"url"`

	// Body is the response data for a successful fetch.
	Body string `yaml:"body,omitempty"`

	// Error makes the fetch fail with this message instead. Body and
	// Error are mutually exclusive.
	Error string `yaml:"error,omitempty"`
}

// Step is one operation in a scenario. Op selects the operation; the
// remaining fields parameterize it and are ignored by other ops.
type Step struct {
	// Op is the operation to perform: sync, feed, apply, edit, restore,
	// diff, or export.
	Op string `yaml:"op"`

	// Text is the transcript text to feed (op: feed).
	Text string `yaml:"text,omitempty"`

	// Chunks splits Text into pieces of this many bytes before feeding,
	// exercising chunk-boundary tolerance. Zero feeds Text whole.
	// (op: feed)
	Chunks int `yaml:"chunks,omitempty"`

	// Document replaces the document content (op: edit). Empty keeps
	// the current content.
	Document string `yaml:"document,omitempty"`

	// Writer and Reader replace the stored scripts (op: edit). Empty
	// keeps the current script.
	Writer string `yaml:"writer,omitempty"`
	Reader string `yaml:"reader,omitempty"`

	// Index is the checkpoint to restore (op: restore).
	Index int `yaml:"index,omitempty"`

	// From and To are the checkpoints to compare (op: diff).
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// Expect validates this step's outcome. If nil, the step must
	// simply succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Step operation constants.
const (
	OpSync    = "sync"
	OpFeed    = "feed"
	OpApply   = "apply"
	OpEdit    = "edit"
	OpRestore = "restore"
	OpDiff    = "diff"
	OpExport  = "export"
)

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected failure code (e.g. "writer_failed").
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Checkpoint is the expected committed or restored index. Zero
	// skips the check; sync never commits at the baseline.
	Checkpoint int `yaml:"checkpoint,omitempty"`

	// Variables maps names to expected renderings after the step.
	// Subset match - only listed names are checked. Tables compare in
	// pipe markup.
	Variables map[string]string `yaml:"variables,omitempty"`

	// Directives is the expected directive kind sequence, in stream
	// order (feed reports extracted kinds, apply reports applied ones).
	Directives []string `yaml:"directives,omitempty"`
}

// Assertion validates the final session state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "history_count": the checkpoint log holds exactly Count entries
	// - "document_contains": the rendered document contains Text
	// - "variables": final variables match Values (subset)
	// - "remainder_contains": the parser remainder contains Text
	// - "fetch_count": fetchExternal was called exactly Count times
	Type string `yaml:"type"`

	// Count is the expected count (history_count, fetch_count).
	Count int `yaml:"count,omitempty"`

	// Text is the expected substring (document_contains,
	// remainder_contains).
	Text string `yaml:"text,omitempty"`

	// Values maps variable names to expected renderings (variables).
	// Subset match - only listed names are checked.
	Values map[string]string `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryCount      = "history_count"
	AssertDocumentContains  = "document_contains"
	AssertVariables         = "variables"
	AssertRemainderContains = "remainder_contains"
	AssertFetchCount        = "fetch_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, stub := range s.Fetch {
		if stub.URL == "" {
			return fmt.Errorf("fetch[%d]: url is required", i)
		}
		if stub.Body != "" && stub.Error != "" {
			return fmt.Errorf("fetch[%d]: body and error are mutually exclusive", i)
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpSync, OpApply, OpExport:
		// No parameters.
	case OpFeed:
		if s.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for feed", index)
		}
		if s.Chunks < 0 {
			return fmt.Errorf("steps[%d]: chunks must be non-negative", index)
		}
	case OpEdit:
		if s.Document == "" && s.Writer == "" && s.Reader == "" {
			return fmt.Errorf("steps[%d]: edit requires document, writer, or reader", index)
		}
	case OpRestore:
		if s.Index < 0 {
			return fmt.Errorf("steps[%d]: index must be non-negative for restore", index)
		}
	case OpDiff:
		if s.From < 0 || s.To < 0 {
			return fmt.Errorf("steps[%d]: from and to must be non-negative for diff", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Expect != nil && expectEmpty(s.Expect) {
		return fmt.Errorf("steps[%d]: expect clause is empty", index)
	}

	return nil
}

// expectEmpty reports whether a clause constrains nothing.
func expectEmpty(e *ExpectClause) bool {
	return e.Error == "" && e.Checkpoint == 0 && len(e.Variables) == 0 && len(e.Directives) == 0
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHistoryCount:
		// The baseline checkpoint always exists.
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be at least 1 for history_count", index)
		}
	case AssertDocumentContains, AssertRemainderContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertVariables:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values is required for variables", index)
		}
	case AssertFetchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fetch_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
