package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/engine"
	"github.com/roach88/vellum/internal/parse"
	"github.com/roach88/vellum/internal/state"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Session   string
	ChunkSize int
}

// ApplyResult is the JSON payload for a completed apply.
type ApplyResult struct {
	Applied    []state.DirectiveKind `json:"applied"`
	Incomplete []state.DirectiveKind `json:"incomplete,omitempty"`
	Remainder  string                `json:"remainder"`
	Checkpoint int                   `json:"checkpoint"`
	Variables  state.VariableSet     `json:"variables"`
	Document   string                `json:"document"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <manifest.cue> <transcript>",
		Short: "Apply agent directives from a saved transcript",
		Long: `Stream a saved agent transcript through the directive parser, apply
what it finds, then run one sync pass.

Update directives embedded in the transcript replace the session's
writer script, reader script, or document. The remaining prose, with
directive blocks and protocol jargon removed, is printed as the
remainder. --chunk-size replays the transcript in fixed-size pieces to
mirror how a live stream arrives; extraction does not depend on where
the pieces split.

Examples:
  vellum apply report.cue transcript.txt
  vellum apply report.cue transcript.txt --chunk-size 16 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session directory (defaults to the manifest's history field)")
	cmd.Flags().IntVar(&opts.ChunkSize, "chunk-size", 0, "feed the transcript in chunks of this many bytes (0 feeds it whole)")

	return cmd
}

func runApply(opts *ApplyOptions, manifestPath, transcriptPath string, cmd *cobra.Command) error {
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

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transcript", err)
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

	parser := parse.NewParser()
	directives := feedTranscript(parser, string(data), opts.ChunkSize)
	formatter.VerboseLog("Extracted %d directive(s) from %s", len(directives), transcriptPath)

	var incomplete []state.DirectiveKind
	if err := parser.Finish(); err != nil {
		if pe, ok := parse.AsParseError(err); ok {
			incomplete = pe.Kinds
		}
		slog.Warn("transcript ended with open directives", "error", err)
	}

	eng := engine.New(sess)

	applied, err := eng.ApplyDirectives(ctx, directives)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	res, err := eng.Sync(ctx, engine.SyncRequest{})
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	result := ApplyResult{
		Applied:    applied,
		Incomplete: incomplete,
		Remainder:  parser.Remainder(),
		Checkpoint: res.Index,
		Variables:  res.Variables,
		Document:   res.Document,
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputApplyText(cmd.OutOrStdout(), result)
}

// feedTranscript streams text through the parser, optionally in fixed
// byte chunks to exercise split-tolerant extraction.
func feedTranscript(parser *parse.Parser, text string, chunkSize int) []state.Directive {
	if chunkSize <= 0 {
		parser.Feed(text)
		return parser.Extract()
	}

	var directives []state.Directive
	for start := 0; start < len(text); start += chunkSize {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		parser.Feed(text[start:end])
		directives = append(directives, parser.Extract()...)
	}
	return directives
}

// outputApplyText renders an apply result for humans.
func outputApplyText(w io.Writer, result ApplyResult) error {
	if len(result.Applied) == 0 {
		fmt.Fprintln(w, "No directives applied")
	} else {
		fmt.Fprintf(w, "Applied %d directive(s): %s\n", len(result.Applied), kindList(result.Applied))
	}
	if len(result.Incomplete) > 0 {
		fmt.Fprintf(w, "Warning: unterminated directive(s): %s\n", kindList(result.Incomplete))
	}
	fmt.Fprintf(w, "Sync succeeded (checkpoint %d)\n", result.Checkpoint)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Remainder ===")
	if strings.TrimSpace(result.Remainder) == "" {
		fmt.Fprintln(w, "  (empty)")
	} else {
		fmt.Fprintln(w, result.Remainder)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Variables ===")
	formatVariables(w, result.Variables)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Document ===")
	fmt.Fprintln(w, result.Document)

	return nil
}

// kindList joins directive kinds for display.
func kindList(kinds []state.DirectiveKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
