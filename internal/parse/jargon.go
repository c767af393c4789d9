package parse

import (
	"regexp"
	"strings"
)

// jargonPatterns match lines of agent text that narrate the pipeline's
// own mechanics. Matching lines are dropped whole from the remainder,
// never redacted in place.
var jargonPatterns = []*regexp.Regexp{
	// Stray or unpaired directive tags.
	regexp.MustCompile(`(?i)\[\[/?UPDATE`),
	// Store API chatter.
	regexp.MustCompile(`(?i)\bstore\.(mutate|execute|listTables|tableRows)\b`),
	regexp.MustCompile(`(?i)\bfetchExternal\b`),
	// Raw statements aimed at the scratch store.
	regexp.MustCompile(`(?i)^\s*(create|alter|drop)\s+table\b`),
	regexp.MustCompile(`(?i)^\s*(insert\s+into|delete\s+from|select\s+.+\s+from)\b`),
	// Script-role narration.
	regexp.MustCompile(`(?i)\b(writer|reader)\s+script\b`),
}

// filterJargon drops every line matching a deny-list pattern and
// returns the rest unchanged.
func filterJargon(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isJargonLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isJargonLine(line string) bool {
	for _, re := range jargonPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
