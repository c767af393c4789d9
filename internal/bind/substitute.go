package bind

import (
	"regexp"
	"strings"

	"github.com/roach88/vellum/internal/state"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Substitute replaces every {{name}} placeholder in document with the
// matching variable's value: plain text for Text values, a
// pipe-delimited table block for Table values. Placeholders naming no
// variable stay verbatim, since the variable may simply not exist yet.
//
// Substitution is a pure function of (document, vars): neither input
// is mutated, and inserted values are not rescanned within one call.
func Substitute(document string, vars state.VariableSet) string {
	if len(vars) == 0 || !strings.Contains(document, "{{") {
		return document
	}

	return placeholderPattern.ReplaceAllStringFunc(document, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		v, ok := vars[sub[1]]
		if !ok {
			return m
		}
		switch val := v.(type) {
		case state.Text:
			return string(val)
		case state.Table:
			return RenderTable(val)
		}
		return m
	})
}

// RenderTable renders a table as pipe-delimited markup: a header row,
// a separator row, then one row per record. Cells are rendered with
// state.FormatCell and joined without a trailing newline.
func RenderTable(t state.Table) string {
	if len(t.Columns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, renderRow(t.Columns))

	seps := make([]string, len(t.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	lines = append(lines, renderRow(seps))

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = state.FormatCell(cell)
		}
		lines = append(lines, renderRow(cells))
	}

	return strings.Join(lines, "\n")
}

func renderRow(cells []string) string {
	var b strings.Builder
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(c)
		b.WriteString(" |")
	}
	return b.String()
}
