// Package session holds the mutable state of one live document: the
// canonical content, the writer/reader script pair, the bound
// variables, and the two SQLite files backing them. All durable state
// changes flow through checkpoint commits, so the history log and the
// in-memory view never drift apart.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/vellum/internal/history"
	"github.com/roach88/vellum/internal/state"
	"github.com/roach88/vellum/internal/store"
)

// Database files inside a session directory.
const (
	ScratchDBName = "scratch.db"
	HistoryDBName = "history.db"
)

// Clock supplies checkpoint timestamps. Tests substitute a
// deterministic clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Session is the explicit state object for one document workspace.
// It owns the scratch store scripts run against and the checkpoint
// log; both live in the session directory.
type Session struct {
	dir   string
	clock Clock
	store *store.Store
	log   *history.Log

	mu      sync.RWMutex
	id      uuid.UUID
	content string
	writer  string
	reader  string
	vars    state.VariableSet
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for checkpoint timestamps.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// Open creates or resumes the session in dir. A fresh session is
// seeded with a blank baseline checkpoint at index 0, so the log
// always has at least one entry; resuming loads the latest checkpoint
// as current state.
func Open(dir string, opts ...Option) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	s := &Session{
		dir:   dir,
		clock: systemClock{},
		vars:  state.VariableSet{},
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := store.Open(filepath.Join(dir, ScratchDBName))
	if err != nil {
		return nil, err
	}
	s.store = st

	log, err := history.Open(filepath.Join(dir, HistoryDBName))
	if err != nil {
		st.Close()
		return nil, err
	}
	s.log = log

	ctx := context.Background()
	id, err := log.EnsureSessionID(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.id = id

	if err := s.load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// load seeds the baseline checkpoint if the log is empty, then adopts
// the latest checkpoint as current state.
func (s *Session) load(ctx context.Context) error {
	count, err := s.log.Count(ctx)
	if err != nil {
		return err
	}

	if count == 0 {
		baseline := state.Checkpoint{
			Variables:   state.VariableSet{},
			Description: "initial",
		}
		if _, _, err := s.Commit(ctx, baseline); err != nil {
			return fmt.Errorf("seed baseline checkpoint: %w", err)
		}
		slog.Debug("session seeded", "session", s.id, "dir", s.dir)
		return nil
	}

	cp, idx, err := s.log.Latest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checkpoint log reported %d entries but none found", count)
		}
		return err
	}

	s.mu.Lock()
	s.adoptLocked(cp)
	s.mu.Unlock()

	slog.Debug("session resumed", "session", s.id, "dir", s.dir, "checkpoint", idx)
	return nil
}

// Close releases both databases.
func (s *Session) Close() error {
	var errs []error
	if s.log != nil {
		errs = append(errs, s.log.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// Dir returns the session directory.
func (s *Session) Dir() string { return s.dir }

// ID returns the session identity, a UUIDv7 minted when the session
// directory was first opened. Import replaces it along with the rest
// of the session.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Store returns the scratch store scripts run against.
func (s *Session) Store() *store.Store { return s.store }

// Log returns the checkpoint log.
func (s *Session) Log() *history.Log { return s.log }

// Document returns the canonical document content, placeholders
// included.
func (s *Session) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

// Scripts returns the current writer and reader script pair.
func (s *Session) Scripts() (writer, reader string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writer, s.reader
}

// Variables returns a copy of the current variable set.
func (s *Session) Variables() state.VariableSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars.Clone()
}

// SetDocument commits a manual document edit as a new checkpoint,
// keeping the current scripts and variables.
func (s *Session) SetDocument(ctx context.Context, content, description string) (state.Checkpoint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.draftLocked(description)
	draft.Content = content
	return s.commitLocked(ctx, draft)
}

// SetScripts commits a manual script edit as a new checkpoint, keeping
// the current document and variables. An empty writer or reader keeps
// the present script for that role.
func (s *Session) SetScripts(ctx context.Context, writer, reader, description string) (state.Checkpoint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.draftLocked(description)
	if writer != "" {
		draft.WriterScript = writer
	}
	if reader != "" {
		draft.ReaderScript = reader
	}
	return s.commitLocked(ctx, draft)
}

// Commit appends the draft as a new checkpoint and adopts it as the
// current session state. The draft's ID is computed here; a zero
// timestamp is stamped from the session clock.
func (s *Session) Commit(ctx context.Context, draft state.Checkpoint) (state.Checkpoint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, draft)
}

// Restore adopts the checkpoint at index as current state and
// truncates the log so it becomes the latest entry. Later checkpoints
// are permanently discarded. The scratch store is not touched here:
// re-deriving store state by replaying the restored writer is the
// pipeline's job.
func (s *Session) Restore(ctx context.Context, index int) (state.Checkpoint, error) {
	cp, err := s.log.Get(ctx, index)
	if err != nil {
		return state.Checkpoint{}, err
	}
	if err := s.log.Truncate(ctx, index); err != nil {
		return state.Checkpoint{}, err
	}

	s.mu.Lock()
	s.adoptLocked(cp)
	s.mu.Unlock()

	return cp.Clone(), nil
}

// draftLocked builds a checkpoint draft from the current state.
func (s *Session) draftLocked(description string) state.Checkpoint {
	return state.Checkpoint{
		Content:      s.content,
		WriterScript: s.writer,
		ReaderScript: s.reader,
		Variables:    s.vars.Clone(),
		Description:  description,
	}
}

func (s *Session) commitLocked(ctx context.Context, draft state.Checkpoint) (state.Checkpoint, int, error) {
	if draft.Variables == nil {
		draft.Variables = state.VariableSet{}
	}
	if draft.Timestamp.IsZero() {
		draft.Timestamp = s.clock.Now()
	}

	id, err := state.CheckpointID(draft.Content, draft.WriterScript, draft.ReaderScript, draft.Description)
	if err != nil {
		return state.Checkpoint{}, 0, fmt.Errorf("stamp checkpoint: %w", err)
	}
	draft.ID = id

	idx, err := s.log.Append(ctx, draft)
	if err != nil {
		return state.Checkpoint{}, 0, err
	}

	s.adoptLocked(draft)
	return draft.Clone(), idx, nil
}

// adoptLocked installs a checkpoint's fields as current state.
func (s *Session) adoptLocked(cp state.Checkpoint) {
	s.content = cp.Content
	s.writer = cp.WriterScript
	s.reader = cp.ReaderScript
	if cp.Variables == nil {
		s.vars = state.VariableSet{}
	} else {
		s.vars = cp.Variables.Clone()
	}
}
