package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/vellum/internal/manifest"
	"github.com/roach88/vellum/internal/session"
	"github.com/roach88/vellum/internal/state"
)

// openManifestSession loads a manifest and opens the session it
// addresses, creating and seeding the session directory if this is its
// first use. Shared by run and apply.
func openManifestSession(ctx context.Context, manifestPath, flagDir string) (*session.Session, *manifest.Manifest, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	dir, err := resolveSessionDir(flagDir, manifestPath, m)
	if err != nil {
		return nil, nil, err
	}

	sess, err := session.Open(dir)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open session", err)
	}

	if err := seedSession(ctx, sess, m); err != nil {
		sess.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to seed session", err)
	}

	return sess, m, nil
}

// resolveSessionDir picks the session directory for a manifest-driven
// command: the --session flag wins, then the manifest's history field
// interpreted relative to the manifest file.
func resolveSessionDir(flagDir, manifestPath string, m *manifest.Manifest) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	if m.History == "" {
		return "", NewExitError(ExitCommandError, "no session directory: set session.history in the manifest or pass --session")
	}
	if filepath.IsAbs(m.History) {
		return m.History, nil
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to resolve manifest path", err)
	}
	return filepath.Join(filepath.Dir(abs), m.History), nil
}

// seedSession commits the manifest's document and scripts as the first
// real checkpoint of a brand-new session. A session that already holds
// state resumes from its latest checkpoint instead; the manifest is
// only the starting point, never an overwrite.
func seedSession(ctx context.Context, sess *session.Session, m *manifest.Manifest) error {
	writer, reader := sess.Scripts()
	if sess.Document() != "" || writer != "" || reader != "" {
		return nil
	}
	n, err := sess.Log().Count(ctx)
	if err != nil {
		return err
	}
	if n > 1 {
		// Evolved past the baseline, even if back to empty state.
		return nil
	}

	desc := "manifest"
	if m.Name != "" {
		desc = "manifest " + m.Name
	}
	_, idx, err := sess.Commit(ctx, state.Checkpoint{
		Content:      m.Document,
		WriterScript: m.Writer,
		ReaderScript: m.Reader,
		Description:  desc,
	})
	if err != nil {
		return err
	}
	slog.Debug("session seeded from manifest", "name", m.Name, "checkpoint", idx, "session", sess.ID())
	return nil
}

// requireHistory locates an existing history database under the
// session directory, failing loudly instead of creating one. Used by
// read-only commands so a typo'd path does not materialize an empty
// session.
func requireHistory(dir string) (string, error) {
	path := filepath.Join(dir, session.HistoryDBName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", NewExitError(ExitCommandError, "no session history at "+path)
		}
		return "", WrapExitError(ExitCommandError, "failed to access session history", err)
	}
	return path, nil
}
