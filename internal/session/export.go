package session

import (
	"context"
	"fmt"

	"github.com/roach88/vellum/internal/state"
)

// Export captures the current document+script triple as a flat
// exchange record. Variables are excluded: a collaborator re-derives
// them by re-running the pipeline rather than trusting exported data.
func (s *Session) Export() state.ExportRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return state.ExportRecord{
		Version:      state.FormatVersion,
		Content:      s.content,
		WriterScript: s.writer,
		ReaderScript: s.reader,
		Timestamp:    s.clock.Now(),
	}
}

// Import replaces the session wholesale with an exported record: the
// checkpoint log is cleared, the scratch store is emptied, a fresh
// session identity is minted, and the record becomes the new baseline
// at index 0 with the record's own timestamp. Variables start empty
// until the next pipeline run.
func (s *Session) Import(ctx context.Context, rec state.ExportRecord) (state.Checkpoint, int, error) {
	if rec.Version != state.FormatVersion {
		return state.Checkpoint{}, 0, fmt.Errorf("unsupported export version %d, want %d", rec.Version, state.FormatVersion)
	}

	if err := s.log.Reset(ctx); err != nil {
		return state.Checkpoint{}, 0, err
	}
	if err := s.store.Reset(ctx); err != nil {
		return state.Checkpoint{}, 0, err
	}

	id, err := s.log.EnsureSessionID(ctx)
	if err != nil {
		return state.Checkpoint{}, 0, err
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()

	draft := state.Checkpoint{
		Content:      rec.Content,
		WriterScript: rec.WriterScript,
		ReaderScript: rec.ReaderScript,
		Variables:    state.VariableSet{},
		Description:  "imported",
		Timestamp:    rec.Timestamp,
	}
	return s.Commit(ctx, draft)
}
