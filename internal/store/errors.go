package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Error codes for store failures.
const (
	CodeMalformedStatement  = "malformed_statement"
	CodeConstraintViolation = "constraint_violation"
	CodeTypeMismatch        = "type_mismatch"
	CodeStoreClosed         = "store_closed"
)

// StoreError is a typed failure from a store operation. Script-authored
// SQL fails routinely, so these are ordinary results, never panics.
type StoreError struct {
	Code    string // stable machine-readable code
	Message string // human-readable description
	Stmt    string // offending statement, if any
}

func (e *StoreError) Error() string {
	if e.Stmt != "" {
		return fmt.Sprintf("store error [%s]: %s (stmt: %s)", e.Code, e.Message, truncateStmt(e.Stmt))
	}
	return fmt.Sprintf("store error [%s]: %s", e.Code, e.Message)
}

// AsStoreError extracts a StoreError from an error chain.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// classify wraps a driver error as a StoreError with a stable code.
// Constraint and type failures are recognized from the SQLite error code;
// everything else script SQL can trigger (syntax errors, missing tables,
// misuse) classifies as malformed.
func classify(stmt string, err error) *StoreError {
	if err == nil {
		return nil
	}

	code := CodeMalformedStatement
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrConstraint:
			code = CodeConstraintViolation
		case sqlite3.ErrMismatch:
			code = CodeTypeMismatch
		}
	} else if strings.Contains(err.Error(), "database is closed") {
		code = CodeStoreClosed
	}

	return &StoreError{Code: code, Message: err.Error(), Stmt: stmt}
}

// truncateStmt keeps error messages readable for long scripts.
func truncateStmt(stmt string) string {
	const max = 120
	stmt = strings.TrimSpace(stmt)
	if len(stmt) <= max {
		return stmt
	}
	return stmt[:max] + "..."
}
