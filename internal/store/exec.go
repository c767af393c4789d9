package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/vellum/internal/state"
)

// Mutate runs one schema- or data-changing statement and returns the
// number of rows affected.
func (s *Store) Mutate(ctx context.Context, stmt string, params ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, stmt, params...)
	if err != nil {
		return 0, classify(stmt, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classify(stmt, err)
	}
	return affected, nil
}

// Execute runs one read statement and returns its result set.
// Rows is empty (not nil) when the query matches nothing.
func (s *Store) Execute(ctx context.Context, stmt string, params ...any) (*state.RowSet, error) {
	rows, err := s.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, classify(stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify(stmt, err)
	}

	out := &state.RowSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(stmt, err)
		}
		// TEXT columns scan as []byte; scripts want strings.
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				raw[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(stmt, err)
	}

	return out, nil
}

// ListTables enumerates user tables in name order, excluding SQLite
// internals.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, classify("", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify("", err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("", err)
	}

	return tables, nil
}

// DefaultTableRowLimit bounds TableRows when the caller passes no limit.
const DefaultTableRowLimit = 100

// TableRows returns up to limit rows of one user table.
// The name is resolved against ListTables before it is interpolated:
// identifiers cannot be bound as SQL parameters, and failing closed on an
// unknown name keeps script input out of the statement text.
func (s *Store) TableRows(ctx context.Context, name string, limit int) (*state.RowSet, error) {
	if limit <= 0 {
		limit = DefaultTableRowLimit
	}

	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	known := false
	for _, t := range tables {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		return nil, &StoreError{
			Code:    CodeMalformedStatement,
			Message: fmt.Sprintf("no such table: %s", name),
		}
	}

	stmt := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(name), limit)
	return s.Execute(ctx, stmt)
}

// Reset drops every user table and view, returning the store to empty.
// Foreign keys are suspended for the sweep so drop order does not matter.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return classify("", err)
	}
	defer s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON")

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
	`)
	if err != nil {
		return classify("", err)
	}

	type object struct{ typ, name string }
	var objects []object
	for rows.Next() {
		var o object
		if err := rows.Scan(&o.typ, &o.name); err != nil {
			rows.Close()
			return classify("", err)
		}
		objects = append(objects, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return classify("", err)
	}
	rows.Close()

	for _, o := range objects {
		stmt := fmt.Sprintf("DROP %s IF EXISTS %s", strings.ToUpper(o.typ), quoteIdent(o.name))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(stmt, err)
		}
	}

	return nil
}

// SplitStatements splits a semicolon-separated script into individual
// statements, honoring single- and double-quoted regions. Doubled quotes
// inside a quoted region toggle twice and so stay balanced. Empty
// fragments are dropped.
func SplitStatements(script string) []string {
	var stmts []string
	var sb strings.Builder
	inSingle, inDouble := false, false

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == ';' && !inSingle && !inDouble:
			if s := strings.TrimSpace(sb.String()); s != "" {
				stmts = append(stmts, s)
			}
			sb.Reset()
			continue
		}
		sb.WriteByte(c)
	}

	if s := strings.TrimSpace(sb.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// quoteIdent quotes a SQLite identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
