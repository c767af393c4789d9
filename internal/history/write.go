package history

import (
	"context"
	"fmt"

	"github.com/roach88/vellum/internal/state"
)

// Append writes a checkpoint to the end of the log and returns its
// index. The index is assigned inside the insert transaction, so
// concurrent appends from one process observe a contiguous sequence
// starting at 0.
//
// The checkpoint is stored as given: the caller is responsible for
// populating ID and Timestamp before appending.
func (l *Log) Append(ctx context.Context, cp state.Checkpoint) (int, error) {
	varsJSON, err := marshalVariables(cp.Variables)
	if err != nil {
		return 0, fmt.Errorf("append checkpoint: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append checkpoint: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(idx) + 1, 0) FROM checkpoints
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("append checkpoint: next index: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints
		(idx, id, content, writer_script, reader_script, variables, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		next,
		cp.ID,
		cp.Content,
		cp.WriterScript,
		cp.ReaderScript,
		varsJSON,
		cp.Description,
		formatTimestamp(cp.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("append checkpoint: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append checkpoint: commit: %w", err)
	}

	return int(next), nil
}
