package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/state"
)

func TestBind_StringValues(t *testing.T) {
	vars, err := Bind(map[string]any{
		"x":     "5",
		"title": "Quarterly Report",
	})
	require.NoError(t, err)

	assert.Equal(t, state.Text("5"), vars["x"])
	assert.Equal(t, state.Text("Quarterly Report"), vars["title"])
}

func TestBind_TableValue(t *testing.T) {
	vars, err := Bind(map[string]any{
		"t": map[string]any{
			"columns": []any{"a", "b"},
			"values": []any{
				[]any{int64(1), "x"},
				[]any{float64(2), nil},
			},
		},
	})
	require.NoError(t, err)

	tbl, ok := vars["t"].(state.Table)
	require.True(t, ok, "value should bind as a Table")
	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, int64(1), tbl.Rows[0][0])
	assert.Equal(t, int64(2), tbl.Rows[1][0], "integral floats normalize to int64")
	assert.Nil(t, tbl.Rows[1][1])
}

func TestBind_EmptyMapping(t *testing.T) {
	vars, err := Bind(map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestBind_NilOutput(t *testing.T) {
	_, err := Bind(nil)
	require.Error(t, err)

	be, ok := AsBindError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotMapping, be.Code)
}

func TestBind_NonMappingOutput(t *testing.T) {
	for _, out := range []any{"a string", int64(7), []any{"list"}} {
		_, err := Bind(out)
		require.Error(t, err, "output %T should be rejected", out)

		be, ok := AsBindError(err)
		require.True(t, ok)
		assert.Equal(t, CodeNotMapping, be.Code)
	}
}

func TestBind_ValueWrongType(t *testing.T) {
	_, err := Bind(map[string]any{"flag": true})
	require.Error(t, err)

	be, ok := AsBindError(err)
	require.True(t, ok)
	assert.Equal(t, CodeBadValue, be.Code)
	assert.Equal(t, "flag", be.Name)
}

func TestBind_TableMissingKeys(t *testing.T) {
	_, err := Bind(map[string]any{
		"t": map[string]any{"columns": []any{"a"}},
	})
	require.Error(t, err)

	be, ok := AsBindError(err)
	require.True(t, ok)
	assert.Equal(t, CodeBadTable, be.Code)
}

func TestBind_TableBadColumns(t *testing.T) {
	_, err := Bind(map[string]any{
		"t": map[string]any{
			"columns": []any{"a", int64(2)},
			"values":  []any{},
		},
	})
	require.Error(t, err)

	be, ok := AsBindError(err)
	require.True(t, ok)
	assert.Equal(t, CodeBadTable, be.Code)
	assert.Equal(t, "t", be.Name)
}

func TestBind_TableBadRows(t *testing.T) {
	tests := []struct {
		name   string
		values any
	}{
		{"row not an array", []any{"flat"}},
		{"nested object cell", []any{[]any{map[string]any{"x": 1}}}},
		{"values not an array", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(map[string]any{
				"t": map[string]any{
					"columns": []any{"a"},
					"values":  tt.values,
				},
			})
			require.Error(t, err)

			be, ok := AsBindError(err)
			require.True(t, ok)
			assert.Equal(t, CodeBadTable, be.Code)
		})
	}
}

func TestBind_PassThroughTypedValues(t *testing.T) {
	in := state.VariableSet{
		"x": state.Text("hello"),
		"t": state.Table{Columns: []string{"a"}, Rows: [][]any{{int64(1)}}},
	}

	vars, err := Bind(in)
	require.NoError(t, err)
	assert.Equal(t, in, vars)

	// The returned set must be a copy, not an alias.
	vars["x"] = state.Text("changed")
	assert.Equal(t, state.Text("hello"), in["x"])
}

func TestSubstitute_TextValue(t *testing.T) {
	vars := state.VariableSet{"x": state.Text("5")}
	assert.Equal(t, "value=5", Substitute("value={{x}}", vars))
}

func TestSubstitute_TableValue(t *testing.T) {
	vars := state.VariableSet{
		"t": state.Table{
			Columns: []string{"a"},
			Rows:    [][]any{{int64(1)}, {int64(2)}},
		},
	}

	want := "| a |\n| --- |\n| 1 |\n| 2 |"
	assert.Equal(t, want, Substitute("{{t}}", vars))
}

func TestSubstitute_UnresolvedPlaceholderVerbatim(t *testing.T) {
	vars := state.VariableSet{"x": state.Text("5")}
	got := Substitute("{{x}} and {{missing}}", vars)
	assert.Equal(t, "5 and {{missing}}", got)
}

func TestSubstitute_MultipleOccurrences(t *testing.T) {
	vars := state.VariableSet{"x": state.Text("ab")}
	assert.Equal(t, "ab-ab-ab", Substitute("{{x}}-{{x}}-{{x}}", vars))
}

func TestSubstitute_InnerWhitespaceTolerated(t *testing.T) {
	vars := state.VariableSet{"x": state.Text("5")}
	assert.Equal(t, "5", Substitute("{{ x }}", vars))
}

func TestSubstitute_EmptyVariableSet(t *testing.T) {
	doc := "value={{x}}"
	assert.Equal(t, doc, Substitute(doc, nil))
	assert.Equal(t, doc, Substitute(doc, state.VariableSet{}))
}

func TestSubstitute_Idempotent(t *testing.T) {
	vars := state.VariableSet{
		"x": state.Text("5"),
		"t": state.Table{Columns: []string{"a"}, Rows: [][]any{{int64(1)}}},
	}
	doc := "x={{x}}\n\n{{t}}\n\nmissing={{missing}}"

	once := Substitute(doc, vars)
	twice := Substitute(once, vars)
	assert.Equal(t, once, twice)
}

func TestRenderTable_MultiColumn(t *testing.T) {
	tbl := state.Table{
		Columns: []string{"region", "total"},
		Rows: [][]any{
			{"north", int64(12)},
			{"south", 7.5},
		},
	}

	want := "| region | total |\n| --- | --- |\n| north | 12 |\n| south | 7.5 |"
	assert.Equal(t, want, RenderTable(tbl))
}

func TestRenderTable_NoColumns(t *testing.T) {
	assert.Equal(t, "", RenderTable(state.Table{}))
}
