package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/roach88/undolog/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
// operator_at values come from a counter starting at 1000 and stepping by 1.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	var tick atomic.Int64
	tick.Store(999)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(ClockFunc(func() int64 { return tick.Add(1) })))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// findEntry reads entry id directly; ok is false when the row is gone.
func findEntry(t *testing.T, s *Store, id int64) (entry ir.LogEntry, ok bool) {
	t.Helper()
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+entryColumns+` FROM model_undo_log WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.LogEntry{}, false
	}
	if err != nil {
		t.Fatalf("read entry %d: %v", id, err)
	}
	return entry, true
}

// mustFindEntry is findEntry for rows that must exist.
func mustFindEntry(t *testing.T, s *Store, id int64) ir.LogEntry {
	t.Helper()
	entry, ok := findEntry(t, s, id)
	if !ok {
		t.Fatalf("entry %d not found", id)
	}
	return entry
}

// createTestDraft creates an update draft for modelID with old/new payloads.
func createTestDraft(modelID, oldData, newData string) ir.Draft {
	return ir.Draft{
		ModelID:   modelID,
		TableName: "t1",
		OpType:    ir.OpUpdate,
		OldData:   ir.Text(oldData),
		NewData:   ir.Text(newData),
	}
}
