package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/vellum/internal/state"
)

// RestoreResult reports a completed restore. Variables are the
// checkpoint's recorded set, not a fresh reader run. ReplayErr is set
// when rebuilding the scratch store from the restored scripts failed;
// the restore itself still stands.
type RestoreResult struct {
	Index      int
	Checkpoint state.Checkpoint
	Document   string
	Variables  state.VariableSet
	ReplayErr  error
}

// Restore adopts the checkpoint at index, discarding all later history,
// then rebuilds the scratch store by replaying the restored writer and
// reader. Restore shares the run gate with Sync: the two are mutually
// exclusive. An invalid index fails closed with no mutation.
func (e *Engine) Restore(ctx context.Context, index int) (RestoreResult, error) {
	if !e.begin() {
		return RestoreResult{}, errBusy()
	}
	defer e.finish()

	run := uuid.Must(uuid.NewV7()).String()
	slog.Debug("restore started", "run", run, "session", e.sess.ID(), "checkpoint", index)

	cp, err := e.sess.Restore(ctx, index)
	if err != nil {
		return RestoreResult{}, &PipelineError{Code: CodeRestoreFailed, Err: err}
	}

	// Any unapplied document directive belonged to the abandoned branch.
	e.pendingDoc.Store(false)

	res := RestoreResult{
		Index:      index,
		Checkpoint: cp,
		Document:   cp.Content,
		Variables:  cp.Variables,
	}
	res.ReplayErr = e.replay(ctx, cp)
	if res.ReplayErr != nil {
		slog.Warn("restore replay failed", "run", run, "checkpoint", index, "error", res.ReplayErr)
	} else {
		slog.Debug("restore complete", "run", run, "checkpoint", index)
	}
	return res, nil
}

// replay clears the scratch store and re-runs the checkpoint's scripts so
// store contents match what the recorded reader observed. Blank scripts
// are skipped: the initial checkpoint has nothing to replay.
func (e *Engine) replay(ctx context.Context, cp state.Checkpoint) error {
	if err := e.sess.Store().Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if strings.TrimSpace(cp.WriterScript) != "" {
		if _, err := e.runner.RunWriter(ctx, cp.WriterScript); err != nil {
			return fmt.Errorf("replay writer: %w", err)
		}
	}
	if strings.TrimSpace(cp.ReaderScript) != "" {
		if _, err := e.runner.RunReader(ctx, cp.ReaderScript); err != nil {
			return fmt.Errorf("replay reader: %w", err)
		}
	}
	return nil
}
