package history

import (
	"errors"
	"fmt"
)

// OutOfRangeError reports a checkpoint index outside [0, Count).
// Operations that receive one fail closed: the log is not modified.
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("checkpoint index %d out of range [0, %d)", e.Index, e.Count)
}

// AsOutOfRange unwraps err as an *OutOfRangeError if possible.
func AsOutOfRange(err error) (*OutOfRangeError, bool) {
	var oor *OutOfRangeError
	if errors.As(err, &oor) {
		return oor, true
	}
	return nil, false
}
