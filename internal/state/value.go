package state

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is a sealed interface for variable values.
// Only Text and Table implement it: a Reader script binds each variable
// name to either a plain string or a columns/values table.
type Value interface {
	value() // Sealed - only these types implement it
}

// Text is a plain string variable value.
type Text string

func (Text) value() {}

// Table is a tabular variable value: ordered columns and ordered rows.
// Cells hold SQLite scalars: nil, bool, int64, float64, or string.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"values"`
}

func (Table) value() {}

// VariableSet maps variable names to their bound values.
// A Reader run replaces the whole set; sets are never merged across runs.
type VariableSet map[string]Value

// Names returns the variable names in sorted order for deterministic
// iteration.
func (vs VariableSet) Names() []string {
	names := make([]string, 0, len(vs))
	for name := range vs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy. Table rows are copied so callers cannot
// mutate a stored set through the returned value.
func (vs VariableSet) Clone() VariableSet {
	if vs == nil {
		return nil
	}
	out := make(VariableSet, len(vs))
	for name, v := range vs {
		switch val := v.(type) {
		case Text:
			out[name] = val
		case Table:
			cols := make([]string, len(val.Columns))
			copy(cols, val.Columns)
			rows := make([][]any, len(val.Rows))
			for i, r := range val.Rows {
				row := make([]any, len(r))
				copy(row, r)
				rows[i] = row
			}
			out[name] = Table{Columns: cols, Rows: rows}
		}
	}
	return out
}

// MarshalJSON encodes the set as a plain JSON object: Text values as
// strings, Table values as {"columns": [...], "values": [...]}.
func (vs VariableSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(vs))
	for name, v := range vs {
		switch val := v.(type) {
		case Text:
			raw[name] = string(val)
		case Table:
			raw[name] = val
		default:
			return nil, fmt.Errorf("variable %q: unsupported value type %T", name, v)
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
// Strings become Text; objects with "columns" and "values" become Table.
func (vs *VariableSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("variable set: %w", err)
	}

	out := make(VariableSet, len(raw))
	for name, msg := range raw {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			out[name] = Text(s)
			continue
		}

		var t tableWire
		if err := json.Unmarshal(msg, &t); err != nil {
			return fmt.Errorf("variable %q: not a string or table: %w", name, err)
		}
		out[name] = Table{Columns: t.Columns, Rows: normalizeRows(t.Rows)}
	}
	*vs = out
	return nil
}

// tableWire is the JSON shape of a table value.
type tableWire struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"values"`
}

// normalizeRows converts float64 cells that hold integral values back to
// int64. encoding/json decodes every number as float64; SQLite scalars
// round-trip better as int64 where exact.
func normalizeRows(rows [][]any) [][]any {
	for _, row := range rows {
		for i, cell := range row {
			if f, ok := cell.(float64); ok {
				if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
					row[i] = int64(f)
				}
			}
		}
	}
	return rows
}

// FormatCell renders a single table cell as display text.
// Strings pass through; integral numbers render without a decimal point;
// nil renders empty.
func FormatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
