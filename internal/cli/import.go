package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/session"
	"github.com/roach88/vellum/internal/state"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Session string
}

// ImportResult is the JSON payload for a completed import.
type ImportResult struct {
	Session     string `json:"session"`
	Checkpoint  int    `json:"checkpoint"`
	ID          string `json:"id"`
	Description string `json:"description"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a session's state from an exported record",
		Long: `Import an exported JSON record into a session.

The record's document and scripts become the session's only checkpoint:
prior history, the scratch store, and the session identity are all
replaced. Importing into a fresh directory creates the session. Run a
sync afterwards to rebuild the store and re-bind variables.

Examples:
  vellum import --session ./state snapshot.json
  vellum import --session ./fresh snapshot.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runImport(opts *ImportOptions, file string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	data, err := os.ReadFile(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read export file", err)
	}

	var rec state.ExportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return WrapExitError(ExitCommandError, "invalid export file", err)
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

	cp, idx, err := sess.Import(ctx, rec)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	result := ImportResult{
		Session:     sess.ID().String(),
		Checkpoint:  idx,
		ID:          cp.ID,
		Description: cp.Description,
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported checkpoint %d into %s (session %s)\n", idx, opts.Session, result.Session)
	return nil
}
