package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/diff"
	"github.com/roach88/vellum/internal/history"
	"github.com/roach88/vellum/internal/state"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Session string
}

// DiffLine mirrors diff.Line with the kind spelled out for JSON.
type DiffLine struct {
	Kind string `json:"kind"`
	Text string `json:"line"`
}

// DiffResult is the JSON payload for a checkpoint diff.
type DiffResult struct {
	From      int        `json:"from"`
	To        int        `json:"to"`
	Lines     []DiffLine `json:"lines"`
	Unchanged int        `json:"unchanged"`
	Added     int        `json:"added"`
	Removed   int        `json:"removed"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Diff the documents of two checkpoints",
		Long: `Compare the document content of two checkpoints line by line.

Lines are marked added, removed, or unchanged. The comparison reads the
history log only; session state is untouched.

Examples:
  vellum diff --session ./state 0 3
  vellum diff --session ./state 2 3 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runDiff(opts *DiffOptions, fromArg, toArg string, cmd *cobra.Command) error {
	from, err := strconv.Atoi(fromArg)
	if err != nil {
		return NewExitError(ExitCommandError, "index must be an integer: "+fromArg)
	}
	to, err := strconv.Atoi(toArg)
	if err != nil {
		return NewExitError(ExitCommandError, "index must be an integer: "+toArg)
	}

	path, err := requireHistory(opts.Session)
	if err != nil {
		return err
	}

	log, err := history.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history", err)
	}
	defer log.Close()

	ctx := context.Background()
	a, err := fetchCheckpoint(ctx, log, from)
	if err != nil {
		return err
	}
	b, err := fetchCheckpoint(ctx, log, to)
	if err != nil {
		return err
	}

	lines := diff.Compare(a.Content, b.Content)
	stat := diff.Summarize(lines)

	result := DiffResult{
		From:      from,
		To:        to,
		Lines:     make([]DiffLine, len(lines)),
		Unchanged: stat.Unchanged,
		Added:     stat.Added,
		Removed:   stat.Removed,
	}
	for i, l := range lines {
		result.Lines[i] = DiffLine{Kind: l.Kind.String(), Text: l.Text}
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "--- checkpoint %d\n", from)
	fmt.Fprintf(w, "+++ checkpoint %d\n", to)
	fmt.Fprint(w, diff.Render(lines))
	fmt.Fprintf(w, "%d added, %d removed, %d unchanged\n", stat.Added, stat.Removed, stat.Unchanged)
	return nil
}

// fetchCheckpoint reads one checkpoint, mapping an out-of-range index
// to a command error.
func fetchCheckpoint(ctx context.Context, log *history.Log, index int) (state.Checkpoint, error) {
	cp, err := log.Get(ctx, index)
	if err != nil {
		if _, ok := history.AsOutOfRange(err); ok {
			return state.Checkpoint{}, NewExitError(ExitCommandError, err.Error())
		}
		return state.Checkpoint{}, WrapExitError(ExitCommandError, "failed to read checkpoint", err)
	}
	return cp, nil
}
