package engine

import (
	"sync/atomic"
	"time"

	"github.com/roach88/vellum/internal/script"
	"github.com/roach88/vellum/internal/session"
)

// RunState describes where the engine is in its lifecycle. The engine
// itself only ever reports StateIdle or StateRunning; StateSucceeded and
// StateFailed are terminal states carried on the result of one run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateSucceeded RunState = "succeeded"
	StateFailed    RunState = "failed"
)

// Engine drives the sync pipeline for one session.
//
// The running flag is the mutual-exclusion gate shared by Sync and
// Restore: whichever operation flips it first owns the scratch store
// until it returns.
type Engine struct {
	sess   *session.Session
	runner *script.Runner

	running atomic.Bool

	// pendingDoc is set when a document-update directive has been applied
	// but not yet substituted. The next successful sync substitutes the
	// document and adopts the result as canonical content.
	pendingDoc atomic.Bool

	scriptOpts []script.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the external-fetch capability handed to writer
// scripts. Defaults to the HTTP fetcher.
func WithFetcher(f script.Fetcher) Option {
	return func(e *Engine) {
		e.scriptOpts = append(e.scriptOpts, script.WithFetcher(f))
	}
}

// WithScriptTimeout bounds each script run. Zero leaves runs unbounded
// apart from the caller's context.
func WithScriptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.scriptOpts = append(e.scriptOpts, script.WithTimeout(d))
	}
}

// New builds an engine over an open session.
func New(sess *session.Session, opts ...Option) *Engine {
	e := &Engine{sess: sess}
	for _, opt := range opts {
		opt(e)
	}
	e.runner = script.NewRunner(sess.Store(), e.scriptOpts...)
	return e
}

// Session returns the session this engine drives.
func (e *Engine) Session() *session.Session {
	return e.sess
}

// State reports StateRunning while a sync or restore is in flight,
// StateIdle otherwise.
func (e *Engine) State() RunState {
	if e.running.Load() {
		return StateRunning
	}
	return StateIdle
}

// begin claims the run gate. It returns false when another run holds it.
func (e *Engine) begin() bool {
	return e.running.CompareAndSwap(false, true)
}

// finish releases the run gate.
func (e *Engine) finish() {
	e.running.Store(false)
}

func errBusy() *PipelineError {
	return &PipelineError{Code: CodeBusy, Message: "a pipeline run is already in flight"}
}
