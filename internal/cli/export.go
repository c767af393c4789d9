package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/session"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Session string
	Out     string
}

// ExportInfo is the JSON payload confirming a file export.
type ExportInfo struct {
	Path      string `json:"path"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session's current state as JSON",
		Long: `Export the session's current document and scripts as a version-tagged
JSON record.

Variables are not exported: they are derived data, re-bound by running
the pipeline after import. Without --out the record itself is written
to stdout, so the output can be redirected straight into a file.

Examples:
  vellum export --session ./state > snapshot.json
  vellum export --session ./state --out snapshot.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the record to this file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
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

	rec := sess.Export()

	if opts.Out == "" {
		// The record is the artifact; print it bare for redirection.
		return printJSON(cmd.OutOrStdout(), rec)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode export", err)
	}
	if err := os.WriteFile(opts.Out, append(data, '\n'), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: ExportInfo{
			Path:      opts.Out,
			Version:   rec.Version,
			Timestamp: formatStamp(rec.Timestamp),
		}})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported session state to %s\n", opts.Out)
	return nil
}
