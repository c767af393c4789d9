package history

import (
	"context"
	"fmt"
)

// Truncate discards every checkpoint after the given index, leaving
// entries [0, index] in place. The discarded tail is permanently
// removed. Fails closed with an *OutOfRangeError if index is not in
// [0, Count()): an invalid index never modifies the log.
//
// Because index 0 is always retained, a log that has been seeded with
// its baseline entry can never be emptied through Truncate.
func (l *Log) Truncate(ctx context.Context, index int) error {
	count, err := l.Count(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= count {
		return &OutOfRangeError{Index: index, Count: count}
	}

	_, err = l.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE idx > ?`, index)
	if err != nil {
		return fmt.Errorf("truncate checkpoints after %d: %w", index, err)
	}
	return nil
}

// Reset removes every checkpoint, including index 0, and the session
// identity with them. Used when a session is replaced wholesale, such
// as importing an exported record; normal restore flows go through
// Truncate instead.
func (l *Log) Reset(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM checkpoints`); err != nil {
		return fmt.Errorf("reset checkpoint log: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("reset session meta: %w", err)
	}
	return nil
}
