package diff

import "strings"

// Render formats a comparison for terminal output: "+ " for added lines,
// "- " for removed, two spaces for unchanged. Output is stable for a
// given input, so it is safe to assert against golden files.
func Render(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Kind {
		case Added:
			sb.WriteString("+ ")
		case Removed:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Stat summarizes a comparison.
type Stat struct {
	Unchanged int `json:"unchanged"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
}

// Summarize counts lines per kind.
func Summarize(lines []Line) Stat {
	var s Stat
	for _, l := range lines {
		switch l.Kind {
		case Unchanged:
			s.Unchanged++
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		}
	}
	return s
}
