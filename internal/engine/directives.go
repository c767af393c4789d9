package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/vellum/internal/state"
)

// ApplyDirectives folds parser output into the session: writer and reader
// updates replace the stored scripts, a document update replaces the
// content with its raw payload. The whole batch commits as one
// checkpoint. Substitution of a new document happens at the next
// successful sync, not here, so placeholders in an agent-authored
// document resolve against the variables that sync produces.
//
// Returns the kinds that were applied, in stream order.
func (e *Engine) ApplyDirectives(ctx context.Context, directives []state.Directive) ([]state.DirectiveKind, error) {
	if len(directives) == 0 {
		return nil, nil
	}

	writer, reader := e.sess.Scripts()
	content := e.sess.Document()

	var applied []state.DirectiveKind
	seen := make(map[state.DirectiveKind]bool)
	label := ""
	sawDocument := false

	for _, d := range directives {
		switch d.Kind {
		case state.WriterUpdate:
			writer = d.Payload
		case state.ReaderUpdate:
			reader = d.Payload
		case state.DocumentUpdate:
			content = d.Payload
			label = d.Label
			sawDocument = true
		default:
			continue
		}
		if !seen[d.Kind] {
			seen[d.Kind] = true
			applied = append(applied, d.Kind)
		}
	}
	if len(applied) == 0 {
		return nil, nil
	}

	_, idx, err := e.sess.Commit(ctx, state.Checkpoint{
		Content:      content,
		WriterScript: writer,
		ReaderScript: reader,
		Variables:    e.sess.Variables(),
		Description:  describeDirectives(applied, label),
	})
	if err != nil {
		return nil, &PipelineError{Code: CodeCheckpointFailed, Err: err}
	}
	if sawDocument {
		e.pendingDoc.Store(true)
	}

	slog.Debug("directives applied", "checkpoint", idx, "kinds", len(applied))
	return applied, nil
}

// describeDirectives builds the checkpoint description for a directive
// batch. A labeled document update names the checkpoint after its label.
func describeDirectives(kinds []state.DirectiveKind, label string) string {
	if label != "" {
		return label
	}
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		switch k {
		case state.WriterUpdate:
			names = append(names, "writer script")
		case state.ReaderUpdate:
			names = append(names, "reader script")
		case state.DocumentUpdate:
			names = append(names, "document")
		}
	}
	return "agent update (" + strings.Join(names, ", ") + ")"
}
