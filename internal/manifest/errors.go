package manifest

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Manifest loading error codes.
const (
	ErrCodeNotFound     = "E001" // manifest path not found
	ErrCodeBadCUE       = "E002" // CUE parse or build error
	ErrCodeMissingField = "E003" // required field absent
	ErrCodeWrongType    = "E004" // field has the wrong type
	ErrCodeNotConcrete  = "E005" // field is a type, not a concrete value
)

// LoadError is a manifest loading failure with a stable code and, when
// CUE can attribute one, a source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsLoadError extracts a LoadError from an error chain.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// convertCUEError wraps a CUE error as a LoadError, keeping the first
// reported position.
func convertCUEError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBadCUE, Message: err.Error()}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
