package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/undolog/internal/ir"
)

// execer is the subset of *sql.DB and *sql.Tx used by the write helpers,
// so the same statement code runs standalone or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertOne stores a single draft as a Normal entry and returns it with its
// assigned id and operator_at.
//
// The draft is normalized and validated first; a malformed draft returns an
// *ir.ValidationError and nothing is written.
func (s *Store) InsertOne(ctx context.Context, d ir.Draft) (ir.LogEntry, error) {
	d, err := prepareDraft(d)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("insert one: %w", err)
	}

	entry, err := s.insert(ctx, s.db, d)
	if err != nil {
		return ir.LogEntry{}, storageErr("insert one", err)
	}
	return entry, nil
}

// InsertMany stores drafts in a single transaction. Either every draft is
// stored or none is. Entries are returned in input order with ascending ids.
//
// Returns an empty slice (not nil) for an empty input.
func (s *Store) InsertMany(ctx context.Context, drafts []ir.Draft) ([]ir.LogEntry, error) {
	prepared := make([]ir.Draft, len(drafts))
	for i, d := range drafts {
		p, err := prepareDraft(d)
		if err != nil {
			return nil, fmt.Errorf("insert many: draft[%d]: %w", i, err)
		}
		prepared[i] = p
	}

	entries := make([]ir.LogEntry, 0, len(prepared))
	if len(prepared) == 0 {
		return entries, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("insert many", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	for i, d := range prepared {
		entry, err := s.insert(ctx, tx, d)
		if err != nil {
			return nil, storageErr("insert many", fmt.Errorf("draft[%d]: %w", i, err))
		}
		entries = append(entries, entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("insert many", fmt.Errorf("commit: %w", err))
	}
	return entries, nil
}

// Record atomically removes every Undone or Redone entry of the draft's
// model and inserts the draft as the new Normal head.
//
// Both statements run in one immediate transaction, so two concurrent
// Record calls for the same model cannot both skip the sweep.
//
// Returns:
//   - entry: the stored entry
//   - pruned: number of Undone/Redone rows removed by the sweep
//   - err: *ir.ValidationError for a malformed draft, *StorageError otherwise
func (s *Store) Record(ctx context.Context, d ir.Draft) (entry ir.LogEntry, pruned int64, err error) {
	d, err = prepareDraft(d)
	if err != nil {
		return ir.LogEntry{}, 0, fmt.Errorf("record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.LogEntry{}, 0, storageErr("record", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	// Step 1: invalidation sweep
	pruned, err = deleteWhereStatusIn(ctx, tx, d.ModelID, []ir.Status{ir.StatusUndone, ir.StatusRedone})
	if err != nil {
		return ir.LogEntry{}, 0, storageErr("record", fmt.Errorf("prune: %w", err))
	}

	// Step 2: new head
	entry, err = s.insert(ctx, tx, d)
	if err != nil {
		return ir.LogEntry{}, 0, storageErr("record", fmt.Errorf("insert: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return ir.LogEntry{}, 0, storageErr("record", fmt.Errorf("commit: %w", err))
	}

	return entry, pruned, nil
}

// DeleteWhereStatusIn removes all entries of modelID whose status is one of
// statuses and returns the number removed. Removing nothing is not an error.
func (s *Store) DeleteWhereStatusIn(ctx context.Context, modelID string, statuses ...ir.Status) (int64, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return 0, fmt.Errorf("delete: invalid status %d", int(st))
		}
	}

	n, err := deleteWhereStatusIn(ctx, s.db, modelID, statuses)
	if err != nil {
		return 0, storageErr("delete", err)
	}
	return n, nil
}

// UpdateStatus sets the status of entry id to next, but only if its current
// status is expected. Returns false, with no error, when the row is missing
// or its status has already changed.
func (s *Store) UpdateStatus(ctx context.Context, id int64, expected, next ir.Status) (bool, error) {
	if !next.Valid() {
		return false, fmt.Errorf("update status: invalid status %d", int(next))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE model_undo_log
		SET status = ?
		WHERE id = ? AND status = ?
	`, int(next), id, int(expected))
	if err != nil {
		return false, storageErr("update status", err)
	}

	return applied(result, "update status")
}

// UpdateHeadStatus is UpdateStatus with one more condition: id must still be
// the head (maximum id) of modelID. An undo or redo racing with Record can
// therefore never transition an entry that is no longer the latest.
func (s *Store) UpdateHeadStatus(ctx context.Context, modelID string, id int64, expected, next ir.Status) (bool, error) {
	if !next.Valid() {
		return false, fmt.Errorf("update head status: invalid status %d", int(next))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE model_undo_log
		SET status = ?
		WHERE id = ? AND model_id = ? AND status = ?
		  AND id = (SELECT MAX(id) FROM model_undo_log WHERE model_id = ?)
	`, int(next), id, modelID, int(expected), modelID)
	if err != nil {
		return false, storageErr("update head status", err)
	}

	return applied(result, "update head status")
}

// insert writes one prepared draft as a Normal entry.
func (s *Store) insert(ctx context.Context, x execer, d ir.Draft) (ir.LogEntry, error) {
	operatorAt := d.OperatorAt
	if operatorAt == 0 {
		operatorAt = s.clock.Now()
	}

	result, err := x.ExecContext(ctx, `
		INSERT INTO model_undo_log
		(model_id, table_name, op_type, old_data, new_data, status, operator_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		d.ModelID,
		d.TableName,
		string(d.OpType),
		d.OldData,
		d.NewData,
		int(ir.StatusNormal),
		operatorAt,
	)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("last insert id: %w", err)
	}

	return ir.LogEntry{
		ID:         id,
		ModelID:    d.ModelID,
		TableName:  d.TableName,
		OpType:     d.OpType,
		OldData:    d.OldData.Clone(),
		NewData:    d.NewData.Clone(),
		Status:     ir.StatusNormal,
		OperatorAt: operatorAt,
	}, nil
}

func deleteWhereStatusIn(ctx context.Context, x execer, modelID string, statuses []ir.Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, 0, len(statuses)+1)
	args = append(args, modelID)
	for _, st := range statuses {
		args = append(args, int(st))
	}

	result, err := x.ExecContext(ctx, `
		DELETE FROM model_undo_log
		WHERE model_id = ? AND status IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete by status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func applied(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, storageErr(op, fmt.Errorf("rows affected: %w", err))
	}
	return n == 1, nil
}

func prepareDraft(d ir.Draft) (ir.Draft, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return ir.Draft{}, err
	}
	return d, nil
}
