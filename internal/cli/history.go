package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Session string
}

// HistoryEntry is one checkpoint row in the history listing.
type HistoryEntry struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Variables   int    `json:"variables"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a session's checkpoints",
		Long: `List every checkpoint in a session's history log, oldest first.

Index 0 is the baseline the session was created with; the highest index
is the state the session resumes from. Only the history database is
opened, so the command never mutates the session.

Examples:
  vellum history --session ./state
  vellum history --session ./state --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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
	checkpoints, err := log.List(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list checkpoints", err)
	}

	entries := make([]HistoryEntry, len(checkpoints))
	for i, cp := range checkpoints {
		entries[i] = HistoryEntry{
			Index:       i,
			ID:          cp.ID,
			Description: cp.Description,
			Timestamp:   formatStamp(cp.Timestamp),
			Variables:   len(cp.Variables),
		}
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: entries})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tCREATED\tDESCRIPTION\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Index, e.Timestamp, e.Description, shortID(e.ID))
	}
	return w.Flush()
}
