package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/engine"
	"github.com/roach88/vellum/internal/state"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Session string
	Timeout time.Duration
	Out     string
}

// RunResult is the JSON payload for a completed sync.
type RunResult struct {
	Session    string            `json:"session"`
	Checkpoint int               `json:"checkpoint"`
	Variables  state.VariableSet `json:"variables"`
	Document   string            `json:"document"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <manifest.cue>",
		Short: "Run one sync pass for a manifest's session",
		Long: `Run the writer/reader pipeline once for the session a manifest declares.

A brand-new session is seeded with the manifest's document and scripts;
an existing session resumes from its latest checkpoint. One sync runs
the writer against the scratch store, binds the reader's variables,
substitutes them into the document, and commits a checkpoint.

Examples:
  vellum run report.cue
  vellum run report.cue --session ./state --timeout 10s
  vellum run report.cue --out report.md --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (defaults to the manifest's history field)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-script timeout (0 uses the engine default)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the substituted document to this file")

	return cmd
}

func runSync(opts *RunOptions, manifestPath string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, _, err := openManifestSession(ctx, manifestPath, opts.Session)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Error("error closing session", "error", closeErr)
		}
	}()

	var engOpts []engine.Option
	if opts.Timeout > 0 {
		engOpts = append(engOpts, engine.WithScriptTimeout(opts.Timeout))
	}
	eng := engine.New(sess, engOpts...)

	res, err := eng.Sync(ctx, engine.SyncRequest{})
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, []byte(res.Document), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write document", err)
		}
		formatter.VerboseLog("Wrote document to %s", opts.Out)
	}

	result := RunResult{
		Session:    sess.ID().String(),
		Checkpoint: res.Index,
		Variables:  res.Variables,
		Document:   res.Document,
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputRunText(cmd.OutOrStdout(), result)
}

// outputRunText renders a sync result for humans.
func outputRunText(w io.Writer, result RunResult) error {
	fmt.Fprintf(w, "Sync succeeded (checkpoint %d)\n", result.Checkpoint)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Variables ===")
	formatVariables(w, result.Variables)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Document ===")
	fmt.Fprintln(w, result.Document)

	return nil
}

// outputPipelineError reports a failed pipeline stage and converts it
// to an exit error.
func outputPipelineError(formatter *OutputFormatter, err error) error {
	if perr, ok := engine.AsPipelineError(err); ok {
		_ = formatter.Error(perr.Code, pipelineMessage(perr), nil)
		return NewExitError(ExitFailure, perr.Error())
	}
	_ = formatter.Error("pipeline", err.Error(), nil)
	return NewExitError(ExitFailure, err.Error())
}

// pipelineMessage extracts the human-readable portion of a pipeline
// error, preferring the wrapped cause.
func pipelineMessage(perr *engine.PipelineError) string {
	if perr.Message != "" {
		return perr.Message
	}
	if perr.Err != nil {
		return perr.Err.Error()
	}
	return perr.Code
}
