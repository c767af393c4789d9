package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/vellum/internal/state"
)

// Count returns the number of checkpoints in the log.
func (l *Log) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkpoints`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count checkpoints: %w", err)
	}
	return count, nil
}

// Get retrieves the checkpoint at the given index.
// Returns an *OutOfRangeError if index is not in [0, Count()).
func (l *Log) Get(ctx context.Context, index int) (state.Checkpoint, error) {
	count, err := l.Count(ctx)
	if err != nil {
		return state.Checkpoint{}, err
	}
	if index < 0 || index >= count {
		return state.Checkpoint{}, &OutOfRangeError{Index: index, Count: count}
	}

	row := l.db.QueryRowContext(ctx, `
		SELECT id, content, writer_script, reader_script, variables, description, created_at
		FROM checkpoints
		WHERE idx = ?
	`, index)

	cp, err := scanCheckpointRow(row)
	if err != nil {
		return state.Checkpoint{}, fmt.Errorf("get checkpoint %d: %w", index, err)
	}
	return cp, nil
}

// Latest returns the most recently appended checkpoint and its index.
// Returns sql.ErrNoRows if the log is empty.
func (l *Log) Latest(ctx context.Context) (state.Checkpoint, int, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT idx, id, content, writer_script, reader_script, variables, description, created_at
		FROM checkpoints
		ORDER BY idx DESC
		LIMIT 1
	`)

	var idx int
	var id, content, writer, reader, varsJSON, description, createdAt string
	err := row.Scan(&idx, &id, &content, &writer, &reader, &varsJSON, &description, &createdAt)
	if err != nil {
		return state.Checkpoint{}, 0, err
	}

	cp, err := buildCheckpoint(id, content, writer, reader, varsJSON, description, createdAt)
	if err != nil {
		return state.Checkpoint{}, 0, fmt.Errorf("latest checkpoint: %w", err)
	}
	return cp, idx, nil
}

// List returns every checkpoint ordered by index ascending.
// Returns an empty slice (not nil) if the log is empty.
func (l *Log) List(ctx context.Context) ([]state.Checkpoint, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, content, writer_script, reader_script, variables, description, created_at
		FROM checkpoints
		ORDER BY idx ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var cps []state.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	// Return empty slice instead of nil
	if cps == nil {
		cps = []state.Checkpoint{}
	}

	return cps, nil
}

// scanCheckpoint scans a result row into a Checkpoint.
func scanCheckpoint(rows *sql.Rows) (state.Checkpoint, error) {
	var id, content, writer, reader, varsJSON, description, createdAt string
	if err := rows.Scan(&id, &content, &writer, &reader, &varsJSON, &description, &createdAt); err != nil {
		return state.Checkpoint{}, fmt.Errorf("scan checkpoint: %w", err)
	}
	return buildCheckpoint(id, content, writer, reader, varsJSON, description, createdAt)
}

// scanCheckpointRow scans a single row into a Checkpoint.
func scanCheckpointRow(row *sql.Row) (state.Checkpoint, error) {
	var id, content, writer, reader, varsJSON, description, createdAt string
	if err := row.Scan(&id, &content, &writer, &reader, &varsJSON, &description, &createdAt); err != nil {
		return state.Checkpoint{}, err
	}
	return buildCheckpoint(id, content, writer, reader, varsJSON, description, createdAt)
}

// buildCheckpoint assembles a Checkpoint from stored column values.
func buildCheckpoint(id, content, writer, reader, varsJSON, description, createdAt string) (state.Checkpoint, error) {
	vars, err := unmarshalVariables(varsJSON)
	if err != nil {
		return state.Checkpoint{}, err
	}

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return state.Checkpoint{}, err
	}

	return state.Checkpoint{
		ID:           id,
		Content:      content,
		WriterScript: writer,
		ReaderScript: reader,
		Variables:    vars,
		Description:  description,
		Timestamp:    ts,
	}, nil
}
