package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/vellum/internal/state"
)

// Parse error codes.
const (
	// CodeIncomplete marks a directive whose start tag arrived without
	// its end tag. Not fatal: the stream may simply not be finished.
	CodeIncomplete = "incomplete"
)

// ParseError describes directives left open in the buffer.
type ParseError struct {
	Code  string
	Kinds []state.DirectiveKind
}

func (e *ParseError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("parse error [%s]: unterminated directive(s): %s", e.Code, strings.Join(names, ", "))
}

// AsParseError unwraps err as a *ParseError if possible.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
