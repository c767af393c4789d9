package state

import "time"

// Checkpoint is an immutable snapshot of one session state: the canonical
// document, both scripts, the bound variables, and a short description.
// Checkpoints are created after every successful pipeline run or manual
// edit commit and addressed by their position in the history log.
type Checkpoint struct {
	ID           string      `json:"id"`
	Content      string      `json:"content"`
	WriterScript string      `json:"writerScript"`
	ReaderScript string      `json:"readerScript"`
	Variables    VariableSet `json:"variables"`
	Description  string      `json:"description"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Clone returns a deep copy safe to hand to callers.
func (c Checkpoint) Clone() Checkpoint {
	out := c
	out.Variables = c.Variables.Clone()
	return out
}

// ExportRecord is the flat exchange shape for one checkpoint's
// document+script triple. Variables are intentionally excluded: they are
// re-derived by re-running the pipeline, not persisted as data.
type ExportRecord struct {
	Version      int       `json:"version"`
	Content      string    `json:"content"`
	WriterScript string    `json:"writerScript"`
	ReaderScript string    `json:"readerScript"`
	Timestamp    time.Time `json:"timestamp"`
}

// DirectiveKind identifies which session field a directive updates.
type DirectiveKind string

const (
	WriterUpdate   DirectiveKind = "writer"
	ReaderUpdate   DirectiveKind = "reader"
	DocumentUpdate DirectiveKind = "document"
)

// Directive is one parsed instruction extracted from streamed agent text.
// Directives are transient: consumed immediately by the orchestrator and
// not persisted independently of the checkpoint they produce.
type Directive struct {
	Kind    DirectiveKind `json:"kind"`
	Payload string        `json:"payload"`
	Label   string        `json:"label,omitempty"` // document updates only
}

// RowSet is the result of one read statement: column names in SELECT
// order and rows of SQLite scalars.
type RowSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"values"`
}
