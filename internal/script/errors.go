package script

import (
	"errors"
	"fmt"
)

// Script error codes.
const (
	// CodeNotCallable marks a body that does not evaluate to a function.
	CodeNotCallable = "not_callable"
	// CodeBadArity marks a callable with the wrong parameter count.
	CodeBadArity = "bad_arity"
	// CodeRuntimeError marks a thrown exception or rejected promise.
	CodeRuntimeError = "runtime_error"
	// CodeInterrupted marks a run stopped by timeout or cancellation.
	CodeInterrupted = "interrupted"
	// CodePending marks a callable whose promise never settled.
	CodePending = "pending"
)

// ScriptError wraps every way a script run can fail.
type ScriptError struct {
	Code    string
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error [%s]: %s", e.Code, e.Message)
}

// AsScriptError unwraps err as a *ScriptError if possible.
func AsScriptError(err error) (*ScriptError, bool) {
	var se *ScriptError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
