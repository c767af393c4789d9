// Package bind turns raw Reader output into typed variables and
// substitutes them into document placeholders.
package bind

import (
	"fmt"
	"math"

	"github.com/roach88/vellum/internal/state"
)

// Bind validates raw Reader output and converts it to a VariableSet.
// The output must be a mapping from variable names to either plain
// strings or {columns, values} table objects; any other shape fails
// with a *BindError. The returned set is independent of the input.
func Bind(readerOutput any) (state.VariableSet, error) {
	switch out := readerOutput.(type) {
	case nil:
		return nil, &BindError{Code: CodeNotMapping, Message: "reader returned no value"}
	case state.VariableSet:
		return out.Clone(), nil
	case map[string]any:
		vars := make(state.VariableSet, len(out))
		for name, raw := range out {
			v, err := bindValue(name, raw)
			if err != nil {
				return nil, err
			}
			vars[name] = v
		}
		return vars, nil
	default:
		return nil, &BindError{
			Code:    CodeNotMapping,
			Message: fmt.Sprintf("reader returned %T, want an object of variables", readerOutput),
		}
	}
}

func bindValue(name string, raw any) (state.Value, error) {
	switch v := raw.(type) {
	case string:
		return state.Text(v), nil
	case state.Text:
		return v, nil
	case state.Table:
		return v, nil
	case map[string]any:
		return bindTable(name, v)
	default:
		return nil, &BindError{
			Code:    CodeBadValue,
			Name:    name,
			Message: fmt.Sprintf("value is %T, want a string or a {columns, values} table", raw),
		}
	}
}

// bindTable builds a Table from a {columns, values} object. Unknown
// extra keys are ignored, matching the duck-typed calling convention.
func bindTable(name string, obj map[string]any) (state.Value, error) {
	rawCols, ok := obj["columns"]
	if !ok {
		return nil, &BindError{Code: CodeBadTable, Name: name, Message: `table object is missing "columns"`}
	}
	rawRows, ok := obj["values"]
	if !ok {
		return nil, &BindError{Code: CodeBadTable, Name: name, Message: `table object is missing "values"`}
	}

	cols, err := bindColumns(name, rawCols)
	if err != nil {
		return nil, err
	}
	rows, err := bindRows(name, rawRows)
	if err != nil {
		return nil, err
	}
	return state.Table{Columns: cols, Rows: rows}, nil
}

func bindColumns(name string, raw any) ([]string, error) {
	switch cs := raw.(type) {
	case []string:
		out := make([]string, len(cs))
		copy(out, cs)
		return out, nil
	case []any:
		out := make([]string, len(cs))
		for i, c := range cs {
			s, ok := c.(string)
			if !ok {
				return nil, &BindError{
					Code:    CodeBadTable,
					Name:    name,
					Message: fmt.Sprintf("column %d is %T, want string", i, c),
				}
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, &BindError{
			Code:    CodeBadTable,
			Name:    name,
			Message: fmt.Sprintf(`"columns" is %T, want an array of strings`, raw),
		}
	}
}

func bindRows(name string, raw any) ([][]any, error) {
	var items []any
	switch rs := raw.(type) {
	case [][]any:
		out := make([][]any, len(rs))
		for i, r := range rs {
			row, err := bindRow(name, i, r)
			if err != nil {
				return nil, err
			}
			out[i] = row
		}
		return out, nil
	case []any:
		items = rs
	default:
		return nil, &BindError{
			Code:    CodeBadTable,
			Name:    name,
			Message: fmt.Sprintf(`"values" is %T, want an array of rows`, raw),
		}
	}

	out := make([][]any, len(items))
	for i, item := range items {
		r, ok := item.([]any)
		if !ok {
			return nil, &BindError{
				Code:    CodeBadTable,
				Name:    name,
				Message: fmt.Sprintf("row %d is %T, want an array", i, item),
			}
		}
		row, err := bindRow(name, i, r)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

func bindRow(name string, idx int, r []any) ([]any, error) {
	row := make([]any, len(r))
	for j, cell := range r {
		c, ok := normalizeScalar(cell)
		if !ok {
			return nil, &BindError{
				Code:    CodeBadTable,
				Name:    name,
				Message: fmt.Sprintf("row %d cell %d is %T, want a scalar", idx, j, cell),
			}
		}
		row[j] = c
	}
	return row, nil
}

// normalizeScalar accepts SQLite-style scalar cells and converts
// numeric variants to the canonical int64/float64 forms used
// everywhere else in the engine.
func normalizeScalar(cell any) (any, bool) {
	switch v := cell.(type) {
	case nil:
		return nil, true
	case string:
		return v, true
	case bool:
		return v, true
	case []byte:
		return string(v), true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case float32:
		return normalizeFloat(float64(v)), true
	case float64:
		return normalizeFloat(v), true
	default:
		return nil, false
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return int64(f)
	}
	return f
}
