package undo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/store"
	"github.com/roach88/undolog/internal/testutil"
)

// newTestController opens an in-memory store with a deterministic clock.
func newTestController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:", store.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func mustRecord(t *testing.T, c *Controller, modelID, oldData, newData string) ir.LogEntry {
	t.Helper()
	entry, err := c.Record(context.Background(), modelID, ir.OpUpdate, "t1", ir.Text(oldData), ir.Text(newData))
	require.NoError(t, err)
	return entry
}

func statuses(entries []ir.LogEntry) []ir.Status {
	out := make([]ir.Status, len(entries))
	for i, e := range entries {
		out[i] = e.Status
	}
	return out
}

// fakeStore is a LogStore whose behavior is scripted per test.
type fakeStore struct {
	head      ir.LogEntry
	hasHead   bool
	headErr   error
	recordErr error
	listErr   error
	updateOK  bool
	updateErr error

	updates int
}

func (f *fakeStore) Record(ctx context.Context, d ir.Draft) (ir.LogEntry, int64, error) {
	if f.recordErr != nil {
		return ir.LogEntry{}, 0, f.recordErr
	}
	return ir.LogEntry{ID: 1, ModelID: d.ModelID, TableName: d.TableName, OpType: d.OpType}, 0, nil
}

func (f *fakeStore) Head(ctx context.Context, modelID string) (ir.LogEntry, bool, error) {
	return f.head, f.hasHead, f.headErr
}

func (f *fakeStore) ListByModel(ctx context.Context, modelID string) ([]ir.LogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []ir.LogEntry{}, nil
}

func (f *fakeStore) UpdateHeadStatus(ctx context.Context, modelID string, id int64, expected, next ir.Status) (bool, error) {
	f.updates++
	return f.updateOK, f.updateErr
}

var errBackend = errors.New("disk I/O error")
