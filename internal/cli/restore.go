package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/engine"
	"github.com/roach88/vellum/internal/history"
	"github.com/roach88/vellum/internal/session"
	"github.com/roach88/vellum/internal/state"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Session string
}

// RestoreOutput is the JSON payload for a completed restore.
type RestoreOutput struct {
	Index       int               `json:"index"`
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Document    string            `json:"document"`
	Variables   state.VariableSet `json:"variables"`
	ReplayError string            `json:"replay_error,omitempty"`
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <index>",
		Short: "Restore a session to an earlier checkpoint",
		Long: `Restore a session to the checkpoint at the given index.

Every checkpoint after the index is discarded permanently, the scratch
store is cleared and rebuilt by replaying the restored scripts, and the
checkpoint's recorded variables become current. A replay failure leaves
the restore in place and is reported as a warning.

Examples:
  vellum restore --session ./state 2
  vellum restore --session ./state 0 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runRestore(opts *RestoreOptions, indexArg string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	index, err := strconv.Atoi(indexArg)
	if err != nil {
		return NewExitError(ExitCommandError, "index must be an integer: "+indexArg)
	}

	if _, err := requireHistory(opts.Session); err != nil {
		return err
	}

	sess, err := session.Open(opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open session", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Error("error closing session", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng := engine.New(sess)
	res, err := eng.Restore(ctx, index)
	if err != nil {
		if _, ok := history.AsOutOfRange(err); ok {
			_ = formatter.Error(engine.CodeRestoreFailed, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		return outputPipelineError(formatter, err)
	}

	out := RestoreOutput{
		Index:       res.Index,
		ID:          res.Checkpoint.ID,
		Description: res.Checkpoint.Description,
		Document:    res.Document,
		Variables:   res.Variables,
	}
	if res.ReplayErr != nil {
		out.ReplayError = res.ReplayErr.Error()
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: out})
	}
	return outputRestoreText(cmd.OutOrStdout(), out)
}

// outputRestoreText renders a restore result for humans.
func outputRestoreText(w io.Writer, out RestoreOutput) error {
	fmt.Fprintf(w, "Restored checkpoint %d (%s)\n", out.Index, out.Description)
	if out.ReplayError != "" {
		fmt.Fprintf(w, "Warning: store replay failed: %s\n", out.ReplayError)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Variables ===")
	formatVariables(w, out.Variables)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Document ===")
	fmt.Fprintln(w, out.Document)

	return nil
}
