// Package parse extracts tag-delimited directives from streamed agent
// text.
//
// A Parser accumulates chunks into a buffer and scans the whole buffer
// on each Extract call, so correctness never depends on where chunk
// boundaries fall: a tag split across two chunks matches once both
// halves have arrived. Three directive kinds are recognized, each
// delimited by a case-insensitive tag pair:
//
//	[[UPDATE_WRITER]] <script> [[/UPDATE_WRITER]]
//	[[UPDATE_READER]] <script> [[/UPDATE_READER]]
//	[[UPDATE: <label>]] <document> [[/UPDATE]]
//
// Each kind is extracted at most once per Parser: the first complete
// pair wins and later occurrences are left in the buffer as inert
// text. Extracted spans are removed from the buffer; what remains,
// minus lines on the jargon deny-list, is the user-visible remainder.
package parse
