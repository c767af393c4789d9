package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sessionIDKey = "session_id"

// EnsureSessionID returns the stable identity of the session this log
// belongs to, minting a time-sortable UUIDv7 on first use. The identity
// survives reopen, truncation, and restore; Reset discards it along
// with the checkpoints.
func (l *Log) EnsureSessionID(ctx context.Context) (uuid.UUID, error) {
	id, err := l.readSessionID(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, err
	}

	minted := uuid.Must(uuid.NewV7())
	_, err = l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`,
		sessionIDKey, minted.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("write session id: %w", err)
	}

	// Reread in case a concurrent opener won the insert.
	return l.readSessionID(ctx)
}

func (l *Log) readSessionID(ctx context.Context) (uuid.UUID, error) {
	var raw string
	err := l.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, sessionIDKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("read session id: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("stored session id %q: %w", raw, err)
	}
	return id, nil
}
