package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/vellum/internal/state"
)

// Complete directive pairs. (?s) lets payloads span lines; matches are
// non-greedy so the nearest end tag closes the pair.
var (
	writerPattern   = regexp.MustCompile(`(?is)\[\[UPDATE_WRITER\]\](.*?)\[\[/UPDATE_WRITER\]\]`)
	readerPattern   = regexp.MustCompile(`(?is)\[\[UPDATE_READER\]\](.*?)\[\[/UPDATE_READER\]\]`)
	documentPattern = regexp.MustCompile(`(?is)\[\[UPDATE:\s*([^\[\]]*?)\s*\]\](.*?)\[\[/UPDATE\]\]`)
)

// Start tags, used to report directives that have opened but not yet
// closed.
var (
	writerStart   = regexp.MustCompile(`(?i)\[\[UPDATE_WRITER\]\]`)
	readerStart   = regexp.MustCompile(`(?i)\[\[UPDATE_READER\]\]`)
	documentStart = regexp.MustCompile(`(?i)\[\[UPDATE:`)
)

// Parser scans a growing buffer of streamed text for directives.
// It is single-consumer: one ordered sequence of chunks drives it and
// it performs no concurrency of its own.
type Parser struct {
	buf      string
	consumed map[state.DirectiveKind]bool
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{
		consumed: make(map[state.DirectiveKind]bool),
	}
}

// Feed appends a chunk of streamed text to the buffer.
func (p *Parser) Feed(chunk string) {
	p.buf += chunk
}

// Extract returns every directive newly completed in the buffer, in
// stream order. Matched spans are removed from the buffer and their
// kinds marked consumed, so calling Extract again without feeding more
// text returns nothing. A kind already consumed by this parser never
// matches again; repeated tags are inert text.
func (p *Parser) Extract() []state.Directive {
	type match struct {
		directive  state.Directive
		start, end int
	}

	var found []match
	for _, kp := range []struct {
		kind state.DirectiveKind
		re   *regexp.Regexp
	}{
		{state.WriterUpdate, writerPattern},
		{state.ReaderUpdate, readerPattern},
		{state.DocumentUpdate, documentPattern},
	} {
		if p.consumed[kp.kind] {
			continue
		}
		loc := kp.re.FindStringSubmatchIndex(p.buf)
		if loc == nil {
			continue
		}

		d := state.Directive{Kind: kp.kind}
		if kp.kind == state.DocumentUpdate {
			d.Label = p.buf[loc[2]:loc[3]]
			d.Payload = stripCodeFence(p.buf[loc[4]:loc[5]])
		} else {
			d.Payload = stripCodeFence(p.buf[loc[2]:loc[3]])
		}
		found = append(found, match{directive: d, start: loc[0], end: loc[1]})
	}

	if len(found) == 0 {
		return nil
	}

	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	// Tags do not nest. If a later match starts inside an earlier span,
	// keep the earlier one and carry the inner tags as payload text; the
	// skipped kind stays unconsumed.
	kept := found[:0]
	lastEnd := -1
	for _, m := range found {
		if m.start >= lastEnd {
			kept = append(kept, m)
			lastEnd = m.end
		}
	}

	// Remove spans back to front so earlier offsets stay valid.
	for i := len(kept) - 1; i >= 0; i-- {
		m := kept[i]
		p.buf = p.buf[:m.start] + p.buf[m.end:]
		p.consumed[m.directive.Kind] = true
	}

	directives := make([]state.Directive, len(kept))
	for i, m := range kept {
		directives[i] = m.directive
	}
	return directives
}

// Pending reports directive kinds whose start tag is in the buffer
// without a matching end tag yet. Consumed kinds are never pending:
// their repeated tags are inert.
func (p *Parser) Pending() []state.DirectiveKind {
	var kinds []state.DirectiveKind
	for _, kp := range []struct {
		kind  state.DirectiveKind
		start *regexp.Regexp
		full  *regexp.Regexp
	}{
		{state.WriterUpdate, writerStart, writerPattern},
		{state.ReaderUpdate, readerStart, readerPattern},
		{state.DocumentUpdate, documentStart, documentPattern},
	} {
		if p.consumed[kp.kind] {
			continue
		}
		if kp.start.MatchString(p.buf) && !kp.full.MatchString(p.buf) {
			kinds = append(kinds, kp.kind)
		}
	}
	return kinds
}

// Finish reports whether the stream ended cleanly. A directive left
// open when the stream ends is an *ParseError with code "incomplete";
// it is informational, not fatal, since a resumed stream could still
// close the pair.
func (p *Parser) Finish() error {
	kinds := p.Pending()
	if len(kinds) == 0 {
		return nil
	}
	return &ParseError{Code: CodeIncomplete, Kinds: kinds}
}

// Remainder returns the user-visible text: the buffer with extracted
// spans already removed and jargon lines filtered out.
func (p *Parser) Remainder() string {
	return filterJargon(p.buf)
}

// Reset clears the buffer and forgets which kinds were consumed,
// preparing the parser for a fresh stream.
func (p *Parser) Reset() {
	p.buf = ""
	p.consumed = make(map[state.DirectiveKind]bool)
}

// stripCodeFence removes surrounding triple-backtick markers from a
// payload. The opening fence line may carry a language tag, which is
// dropped with it. Payloads without fences come back trimmed only.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Text before the first newline is the fence info string, not payload.
	// A single-line fenced payload has no newline and keeps its body.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}
	return strings.TrimSpace(body)
}
