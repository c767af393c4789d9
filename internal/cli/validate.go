package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/manifest"
)

// ValidationResult holds the outcome of a manifest load.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Name    string `json:"name,omitempty"`
	History string `json:"history,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest.cue>",
		Short: "Validate a session manifest",
		Long: `Validate a CUE session manifest without touching any session state.

Checks that the manifest parses and that the session block declares the
required fields (name, document, writer, reader) as concrete strings.
Errors carry a stable code and, where CUE can locate one, a source
position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := manifest.Load(path)
	if err != nil {
		return outputManifestError(formatter, err)
	}

	formatter.VerboseLog("Manifest %s declares session %q", path, m.Name)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			Name:    m.Name,
			History: m.History,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Manifest valid: %s\n", m.Name)
	return nil
}

// outputManifestError reports a manifest load failure and maps it to an
// exit code: a missing file is a command error, everything else is a
// validation failure.
func outputManifestError(formatter *OutputFormatter, err error) error {
	le, ok := manifest.AsLoadError(err)
	if !ok {
		_ = formatter.Error(manifest.ErrCodeBadCUE, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	msg := le.Message
	if le.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), le.Message)
	}
	_ = formatter.Error(le.Code, msg, nil)

	code := ExitFailure
	if le.Code == manifest.ErrCodeNotFound {
		code = ExitCommandError
	}
	return NewExitError(code, le.Error())
}
