package harness

import (
	"github.com/roach88/vellum/internal/bind"
	"github.com/roach88/vellum/internal/state"
)

// StepRecord is one executed step in the trace. Exactly one record is
// appended per scenario step, so a scenario's trace always has as many
// entries as it has steps, whether they succeeded or not.
type StepRecord struct {
	// Step is the 1-based position in the scenario.
	Step int `json:"step"`

	// Op is the operation that ran.
	Op string `json:"op"`

	// Outcome is "ok" or a failure code: a pipeline code such as
	// "writer_failed", "out_of_range" for a bad history index, or
	// "error" for anything else.
	Outcome string `json:"outcome"`

	// Detail carries the failure message for debugging. It never
	// reaches golden traces: script engines word their errors
	// differently across versions.
	Detail string `json:"detail,omitempty"`

	// Checkpoint is the index committed or restored by this step, or -1
	// when the step touched no checkpoint.
	Checkpoint int `json:"checkpoint"`

	// Document is the document reported by the step: the substituted
	// rendering after a sync, the restored raw content after a restore.
	Document string `json:"document,omitempty"`

	// Variables holds the step's resulting variable renderings.
	Variables map[string]string `json:"variables,omitempty"`

	// Directives lists directive kinds extracted (feed) or applied
	// (apply), in stream order.
	Directives []string `json:"directives,omitempty"`

	// Unterminated lists directive kinds still open when apply drained
	// the parser.
	Unterminated []string `json:"unterminated,omitempty"`

	// Description is the restored checkpoint's description (restore).
	Description string `json:"description,omitempty"`

	// Diff is the rendered line diff (diff).
	Diff string `json:"diff,omitempty"`

	// Version is the export format version (export).
	Version int `json:"version,omitempty"`

	// ReplayFailed marks a restore whose store replay failed. The
	// restore itself still stands.
	ReplayFailed bool `json:"replay_failed,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step matched its expect
	// clause and every assertion held.
	Pass bool `json:"pass"`

	// Trace records each executed step in order.
	Trace []StepRecord `json:"trace"`

	// Errors contains expectation and assertion failures. Empty when
	// Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the final rendered document: the session content
	// with the final variables substituted in.
	Document string `json:"document"`

	// Variables is the final rendered variable set.
	Variables map[string]string `json:"variables,omitempty"`

	// Remainder is the parser's accumulated user-visible prose.
	Remainder string `json:"remainder,omitempty"`

	// History lists the checkpoint descriptions in log order.
	History []string `json:"history"`

	// Export is the record produced by the last export step, if any.
	Export *state.ExportRecord `json:"export,omitempty"`

	// FetchCalls counts fetchExternal invocations across all steps.
	FetchCalls int `json:"fetch_calls"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// renderVariables flattens a variable set to displayable strings: text
// values verbatim, tables in pipe markup.
func renderVariables(vars state.VariableSet) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for name, v := range vars {
		switch val := v.(type) {
		case state.Text:
			out[name] = string(val)
		case state.Table:
			out[name] = bind.RenderTable(val)
		}
	}
	return out
}

// kindNames flattens directive kinds for records and comparisons.
func kindNames(kinds []state.DirectiveKind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// directiveKinds projects the kind of each directive, in order.
func directiveKinds(directives []state.Directive) []state.DirectiveKind {
	if len(directives) == 0 {
		return nil
	}
	out := make([]state.DirectiveKind, len(directives))
	for i, d := range directives {
		out[i] = d.Kind
	}
	return out
}
