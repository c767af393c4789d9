package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/roach88/vellum/internal/store"
)

// Runner executes Writer and Reader scripts against one scratch store.
// Runs are strictly sequential: the caller must not invoke RunWriter
// and RunReader concurrently on the same Runner, since both scripts
// share the store.
type Runner struct {
	store   *store.Store
	fetcher Fetcher
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithFetcher replaces the default HTTP fetcher. Tests use this to
// serve canned responses.
func WithFetcher(f Fetcher) Option {
	return func(r *Runner) {
		r.fetcher = f
	}
}

// WithTimeout bounds each script run. Zero means no timeout: a hung
// script then blocks its run until the caller's context is cancelled.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner returns a Runner bound to the given scratch store.
func NewRunner(st *store.Store, opts ...Option) *Runner {
	r := &Runner{
		store:   st,
		fetcher: NewHTTPFetcher(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunWriter executes script text as the Writer callable: a
// single-argument async function taking { store, fetchExternal }.
// Returns the settled return value exported to Go, typically a short
// status string or nil. Store effects of a failing Writer are not
// rolled back; partial data is the documented contract.
func (r *Runner) RunWriter(ctx context.Context, scriptText string) (any, error) {
	return r.run(ctx, scriptText, true)
}

// RunReader executes script text as the Reader callable: a
// single-argument async function taking { store }. Returns the raw
// exported value; shape validation belongs to the bind package.
func (r *Runner) RunReader(ctx context.Context, scriptText string) (any, error) {
	return r.run(ctx, scriptText, false)
}

func (r *Runner) run(ctx context.Context, scriptText string, writer bool) (any, error) {
	role := "reader"
	if writer {
		role = "writer"
	}

	runCtx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	vm := goja.New()

	fn, err := compileCallable(vm, scriptText)
	if err != nil {
		return nil, err
	}

	capability, err := r.newCapability(runCtx, vm, writer)
	if err != nil {
		return nil, &ScriptError{Code: CodeRuntimeError, Message: fmt.Sprintf("build capability: %v", err)}
	}

	stop := watchInterrupt(runCtx, vm)
	defer stop()

	started := time.Now()
	res, err := fn(goja.Undefined(), capability)
	if err != nil {
		return nil, wrapCallError(err)
	}

	out, err := settle(res)
	if err != nil {
		return nil, err
	}

	slog.Debug("script run complete",
		"role", role,
		"duration", time.Since(started),
	)
	return out, nil
}

// compileCallable evaluates script text to a function value and checks
// its arity. The text is wrapped in parentheses so both arrow
// functions and function declarations evaluate as expressions.
func compileCallable(vm *goja.Runtime, scriptText string) (goja.Callable, error) {
	src := strings.TrimSpace(scriptText)
	src = strings.TrimRight(src, "; \t\n")
	if src == "" {
		return nil, &ScriptError{Code: CodeNotCallable, Message: "script is empty"}
	}

	v, err := vm.RunString("(" + src + ")")
	if err != nil {
		return nil, &ScriptError{
			Code:    CodeNotCallable,
			Message: fmt.Sprintf("script does not evaluate to a function: %v", err),
		}
	}

	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, &ScriptError{
			Code:    CodeNotCallable,
			Message: fmt.Sprintf("script evaluates to %s, want a function", v.String()),
		}
	}

	// Both calling conventions take exactly one argument: the
	// capability object.
	arity := v.ToObject(vm).Get("length").ToInteger()
	if arity != 1 {
		return nil, &ScriptError{
			Code:    CodeBadArity,
			Message: fmt.Sprintf("callable declares %d parameters, want 1", arity),
		}
	}

	return fn, nil
}

// settle resolves the callable's return value. Async callables return
// a promise; because capabilities are synchronous, the promise is
// settled by the time the VM hands back control. A promise still
// pending means the script awaited something that can never resolve.
func settle(res goja.Value) (any, error) {
	p, ok := res.Export().(*goja.Promise)
	if !ok {
		return res.Export(), nil
	}

	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result().Export(), nil
	case goja.PromiseStateRejected:
		return nil, &ScriptError{
			Code:    CodeRuntimeError,
			Message: rejectionText(p.Result()),
		}
	default:
		return nil, &ScriptError{
			Code:    CodePending,
			Message: "script promise never settled; it awaits a value that cannot resolve",
		}
	}
}

// wrapCallError converts a VM-level failure into a ScriptError.
func wrapCallError(err error) error {
	var intr *goja.InterruptedError
	if errors.As(err, &intr) {
		return &ScriptError{
			Code:    CodeInterrupted,
			Message: fmt.Sprintf("script interrupted: %v", intr.Value()),
		}
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		return &ScriptError{Code: CodeRuntimeError, Message: rejectionText(exc.Value())}
	}

	return &ScriptError{Code: CodeRuntimeError, Message: err.Error()}
}

// rejectionText renders a thrown value or rejection reason for the
// operator. Error objects stringify as "Name: message".
func rejectionText(v goja.Value) string {
	if v == nil {
		return "script failed with no reason"
	}
	return v.String()
}

// watchInterrupt interrupts the VM when ctx is cancelled. The returned
// stop function must be called once the run finishes.
func watchInterrupt(ctx context.Context, vm *goja.Runtime) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	return func() { close(done) }
}
