package bind

import (
	"errors"
	"fmt"
)

// Bind error codes.
const (
	CodeNotMapping = "not_mapping"
	CodeBadValue   = "bad_value"
	CodeBadTable   = "bad_table"
)

// BindError reports Reader output that does not conform to the
// variable calling convention.
type BindError struct {
	Code    string
	Name    string // offending variable, when known
	Message string
}

func (e *BindError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("bind error [%s]: variable %q: %s", e.Code, e.Name, e.Message)
	}
	return fmt.Sprintf("bind error [%s]: %s", e.Code, e.Message)
}

// AsBindError unwraps err as a *BindError if possible.
func AsBindError(err error) (*BindError, bool) {
	var be *BindError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
