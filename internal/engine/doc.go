// Package engine coordinates the sync pipeline. A sync runs the writer
// script against the scratch store, runs the reader script, binds the
// reader's output into named variables, substitutes the document, and
// commits the outcome to the session as one checkpoint.
//
// At most one pipeline run is in flight per engine. A sync or restore
// issued while another run is active is rejected with a busy error, not
// queued. Script failures abandon the attempted run and leave the
// session's document, scripts, and variables exactly as they were; the
// scratch store may retain a failed writer's partial effects.
package engine
