// Package diff implements the line-oriented comparison used to inspect
// checkpoint contents.
//
// The algorithm is a greedy two-cursor walk, not a minimal-edit-distance
// diff: matching lines are emitted as Unchanged; at a divergence, if the
// current new-side line occurs later in the remaining old-side lines the
// new line is emitted as Added (inserting is preferred), otherwise the
// old line is emitted as Removed. Inputs are small human-authored
// documents, so determinism and latency matter more than minimality.
package diff

import "strings"

// Kind classifies one diff line.
type Kind int

const (
	Unchanged Kind = iota
	Added
	Removed
)

// String returns the JSON/text name of the kind.
func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Line is one entry of a comparison result.
type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"line"`
}

// Compare diffs two documents line by line.
//
// Invariants: Compare(s, s) yields only Unchanged lines, one per line of
// s; keeping the Unchanged and Added lines of Compare(a, b) in order
// reconstructs b exactly.
func Compare(a, b string) []Line {
	oldLines := SplitLines(a)
	newLines := SplitLines(b)

	var out []Line
	i, j := 0, 0
	for i < len(oldLines) && j < len(newLines) {
		if oldLines[i] == newLines[j] {
			out = append(out, Line{Kind: Unchanged, Text: oldLines[i]})
			i++
			j++
			continue
		}
		if occursLater(oldLines[i+1:], newLines[j]) {
			out = append(out, Line{Kind: Added, Text: newLines[j]})
			j++
			continue
		}
		out = append(out, Line{Kind: Removed, Text: oldLines[i]})
		i++
	}

	// Flush tails: leftover old lines were removed, leftover new added.
	for ; i < len(oldLines); i++ {
		out = append(out, Line{Kind: Removed, Text: oldLines[i]})
	}
	for ; j < len(newLines); j++ {
		out = append(out, Line{Kind: Added, Text: newLines[j]})
	}
	return out
}

// occursLater reports whether target appears anywhere in remaining.
func occursLater(remaining []string, target string) bool {
	for _, line := range remaining {
		if line == target {
			return true
		}
	}
	return false
}

// SplitLines splits a document into lines. CRLF is normalized to LF and
// a single trailing newline does not create a trailing empty line; the
// empty document has zero lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
