package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/vellum/internal/bind"
	"github.com/roach88/vellum/internal/state"
)

// SyncRequest carries one sync invocation. Writer and Reader override the
// session's stored scripts for this run; an empty field falls back to the
// stored script. On success the session adopts the scripts that ran.
type SyncRequest struct {
	Writer      string
	Reader      string
	Description string
}

// SyncResult reports the outcome of one pipeline run. Document is the
// substituted rendering of the session content with the run's variables;
// Index is the committed checkpoint's position.
type SyncResult struct {
	State     RunState
	Variables state.VariableSet
	Document  string
	Index     int
}

// Sync runs the full pipeline once: writer, reader, bind, substitute,
// commit. A failure at any stage abandons the run and returns a
// *PipelineError; the session keeps its prior document, scripts, and
// variables. The scratch store is not rolled back: a failed writer may
// leave partial data behind, and the surfaced error is the operator's
// cue to inspect it.
func (e *Engine) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	if !e.begin() {
		return SyncResult{State: StateFailed}, errBusy()
	}
	defer e.finish()

	started := time.Now()

	// Time-sortable run token correlating the log lines of one run.
	run := uuid.Must(uuid.NewV7()).String()
	slog.Debug("sync started", "run", run, "session", e.sess.ID())

	writer, reader := e.sess.Scripts()
	if strings.TrimSpace(req.Writer) != "" {
		writer = req.Writer
	}
	if strings.TrimSpace(req.Reader) != "" {
		reader = req.Reader
	}

	if _, err := e.runner.RunWriter(ctx, writer); err != nil {
		return SyncResult{State: StateFailed}, &PipelineError{Code: CodeWriterFailed, Err: err}
	}

	out, err := e.runner.RunReader(ctx, reader)
	if err != nil {
		return SyncResult{State: StateFailed}, &PipelineError{Code: CodeReaderFailed, Err: err}
	}

	vars, err := bind.Bind(out)
	if err != nil {
		return SyncResult{State: StateFailed}, &PipelineError{Code: CodeBindFailed, Err: err}
	}

	// The new set replaces the old wholesale; nothing merges across runs.
	content := e.sess.Document()
	rendered := bind.Substitute(content, vars)
	if e.pendingDoc.Load() {
		content = rendered
	}

	desc := req.Description
	if desc == "" {
		desc = "sync"
	}

	_, idx, err := e.sess.Commit(ctx, state.Checkpoint{
		Content:      content,
		WriterScript: writer,
		ReaderScript: reader,
		Variables:    vars,
		Description:  desc,
	})
	if err != nil {
		return SyncResult{State: StateFailed}, &PipelineError{Code: CodeCheckpointFailed, Err: err}
	}
	e.pendingDoc.Store(false)

	slog.Debug("sync complete",
		"run", run,
		"checkpoint", idx,
		"variables", len(vars),
		"duration", time.Since(started))

	return SyncResult{
		State:     StateSucceeded,
		Variables: vars,
		Document:  rendered,
		Index:     idx,
	}, nil
}
