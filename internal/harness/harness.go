package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/vellum/internal/bind"
	"github.com/roach88/vellum/internal/diff"
	"github.com/roach88/vellum/internal/engine"
	"github.com/roach88/vellum/internal/history"
	"github.com/roach88/vellum/internal/parse"
	"github.com/roach88/vellum/internal/session"
	"github.com/roach88/vellum/internal/state"
	"github.com/roach88/vellum/internal/testutil"
)

// harnessEpoch anchors checkpoint timestamps for every scenario run.
// The clock advances one minute per checkpoint, so timestamps are
// distinct within a run and identical across runs.
var harnessEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Harness executes one scenario against a real session and engine.
// It owns one directive parser for the whole run: a scenario models a
// single agent stream, so directive kinds consumed by an early feed
// stay consumed for later ones.
type Harness struct {
	sess    *session.Session
	eng     *engine.Engine
	parser  *parse.Parser
	fetcher *testutil.CannedFetcher
	pending []state.Directive
	export  *state.ExportRecord
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh throwaway session directory for
// isolation, with a fixed clock and canned fetch responses for
// reproducible results.
//
// Execution flow:
//  1. Create a fresh session and seed the scenario's document/scripts
//  2. Execute each step, recording one trace entry per step
//  3. Validate per-step expect clauses
//  4. Capture final session state
//  5. Evaluate assertions against the result
//
// Steps always run to completion: a failed step records its outcome
// and execution continues, keeping the trace shape stable for golden
// comparison. Only infrastructure failures return an error.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "vellum-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	return RunInDir(scenario, dir)
}

// RunInDir is Run with a caller-owned session directory, for tests
// that inspect the session after the scenario finishes.
func RunInDir(scenario *Scenario, dir string) (*Result, error) {
	fetcher := newFetcher(scenario.Fetch)

	sess, err := session.Open(dir, session.WithClock(testutil.NewFixedClock(harnessEpoch, time.Minute)))
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario session: %w", err)
	}
	defer sess.Close()

	h := &Harness{
		sess:    sess,
		eng:     engine.New(sess, engine.WithFetcher(fetcher)),
		parser:  parse.NewParser(),
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario session: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		rec := h.executeStep(ctx, i+1, step)
		result.Trace = append(result.Trace, rec)
		checkExpect(result, i+1, step, rec)
	}

	h.finalize(ctx, result)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// seed commits the scenario's document and scripts on top of the
// baseline, the same way a manifest seeds a fresh session. A scenario
// without any of the three starts from the bare baseline.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	if scenario.Document == "" && scenario.Writer == "" && scenario.Reader == "" {
		return nil
	}
	_, _, err := h.sess.Commit(ctx, state.Checkpoint{
		Content:      scenario.Document,
		WriterScript: scenario.Writer,
		ReaderScript: scenario.Reader,
		Variables:    state.VariableSet{},
		Description:  "scenario " + scenario.Name,
	})
	return err
}

// newFetcher cans the scenario's fetch stubs. URLs outside the stub
// list fail, so unexpected fetches surface as script errors.
func newFetcher(stubs []FetchStub) *testutil.CannedFetcher {
	f := testutil.NewCannedFetcher()
	for _, s := range stubs {
		if s.Error != "" {
			f.Fail(s.URL, s.Error)
		} else {
			f.Respond(s.URL, s.Body)
		}
	}
	return f
}

// executeStep runs one step and returns its trace record.
func (h *Harness) executeStep(ctx context.Context, seq int, step Step) StepRecord {
	rec := StepRecord{Step: seq, Op: step.Op, Outcome: "ok", Checkpoint: -1}

	switch step.Op {
	case OpSync:
		h.runSync(ctx, &rec)
	case OpFeed:
		h.runFeed(step, &rec)
	case OpApply:
		h.runApply(ctx, &rec)
	case OpEdit:
		h.runEdit(ctx, step, &rec)
	case OpRestore:
		h.runRestore(ctx, step, &rec)
	case OpDiff:
		h.runDiff(ctx, step, &rec)
	case OpExport:
		h.runExport(&rec)
	default:
		// LoadScenario rejects unknown ops; this covers hand-built scenarios.
		rec.Outcome = "error"
		rec.Detail = fmt.Sprintf("unknown op %q", step.Op)
	}

	h.logger.Info("step executed", "step", seq, "op", step.Op, "outcome", rec.Outcome)
	return rec
}

// runSync runs the stored scripts through the pipeline once.
func (h *Harness) runSync(ctx context.Context, rec *StepRecord) {
	res, err := h.eng.Sync(ctx, engine.SyncRequest{})
	if err != nil {
		fail(rec, err)
		return
	}
	rec.Checkpoint = res.Index
	rec.Document = res.Document
	rec.Variables = renderVariables(res.Variables)
}

// runFeed streams the step's text into the parser, optionally split
// into fixed-size chunks, and collects newly completed directives.
func (h *Harness) runFeed(step Step, rec *StepRecord) {
	var extracted []state.Directive
	if step.Chunks <= 0 {
		h.parser.Feed(step.Text)
		extracted = h.parser.Extract()
	} else {
		for start := 0; start < len(step.Text); start += step.Chunks {
			end := start + step.Chunks
			if end > len(step.Text) {
				end = len(step.Text)
			}
			h.parser.Feed(step.Text[start:end])
			extracted = append(extracted, h.parser.Extract()...)
		}
	}

	h.pending = append(h.pending, extracted...)
	rec.Directives = kindNames(directiveKinds(extracted))
}

// runApply folds the pending directives into the session. Directives
// left unterminated in the parser are reported, not fatal: a resumed
// stream could still close them.
func (h *Harness) runApply(ctx context.Context, rec *StepRecord) {
	if err := h.parser.Finish(); err != nil {
		if perr, ok := parse.AsParseError(err); ok {
			rec.Unterminated = kindNames(perr.Kinds)
		}
	}

	applied, err := h.eng.ApplyDirectives(ctx, h.pending)
	if err != nil {
		fail(rec, err)
		return
	}
	h.pending = nil
	rec.Directives = kindNames(applied)
}

// runEdit commits a direct edit of the document or scripts. Empty
// fields keep their current value.
func (h *Harness) runEdit(ctx context.Context, step Step, rec *StepRecord) {
	content := h.sess.Document()
	writer, reader := h.sess.Scripts()
	if step.Document != "" {
		content = step.Document
	}
	if step.Writer != "" {
		writer = step.Writer
	}
	if step.Reader != "" {
		reader = step.Reader
	}

	_, idx, err := h.sess.Commit(ctx, state.Checkpoint{
		Content:      content,
		WriterScript: writer,
		ReaderScript: reader,
		Variables:    h.sess.Variables(),
		Description:  "edit",
	})
	if err != nil {
		fail(rec, err)
		return
	}
	rec.Checkpoint = idx
}

// runRestore rewinds the session to the step's checkpoint index.
func (h *Harness) runRestore(ctx context.Context, step Step, rec *StepRecord) {
	res, err := h.eng.Restore(ctx, step.Index)
	if err != nil {
		fail(rec, err)
		return
	}
	rec.Checkpoint = res.Index
	rec.Description = res.Checkpoint.Description
	rec.Document = res.Document
	rec.Variables = renderVariables(res.Variables)
	if res.ReplayErr != nil {
		rec.ReplayFailed = true
		rec.Detail = res.ReplayErr.Error()
	}
}

// runDiff renders the line diff between two checkpoint contents.
func (h *Harness) runDiff(ctx context.Context, step Step, rec *StepRecord) {
	log := h.sess.Log()
	from, err := log.Get(ctx, step.From)
	if err != nil {
		fail(rec, err)
		return
	}
	to, err := log.Get(ctx, step.To)
	if err != nil {
		fail(rec, err)
		return
	}
	rec.Diff = diff.Render(diff.Compare(from.Content, to.Content))
}

// runExport captures the session's portable export record.
func (h *Harness) runExport(rec *StepRecord) {
	record := h.sess.Export()
	rec.Version = record.Version
	h.export = &record
}

// fail stamps a record with the error's code. Pipeline errors keep
// their own code, a bare out-of-range index reports "out_of_range",
// and anything else is "error".
func fail(rec *StepRecord, err error) {
	rec.Detail = err.Error()
	if perr, ok := engine.AsPipelineError(err); ok {
		rec.Outcome = perr.Code
		return
	}
	if _, ok := history.AsOutOfRange(err); ok {
		rec.Outcome = "out_of_range"
		return
	}
	rec.Outcome = "error"
}

// finalize captures the post-run session state for assertions and the
// golden snapshot.
func (h *Harness) finalize(ctx context.Context, result *Result) {
	result.Document = bind.Substitute(h.sess.Document(), h.sess.Variables())
	result.Variables = renderVariables(h.sess.Variables())
	result.Remainder = h.parser.Remainder()
	result.Export = h.export
	result.FetchCalls = len(h.fetcher.Calls())

	list, err := h.sess.Log().List(ctx)
	if err != nil {
		result.AddError(fmt.Sprintf("failed to list history: %v", err))
		return
	}
	for _, cp := range list {
		result.History = append(result.History, cp.Description)
	}
}
