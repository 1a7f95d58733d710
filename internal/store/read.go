package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/undolog/internal/ir"
)

const entryColumns = `id, model_id, table_name, op_type, old_data, new_data, status, operator_at`

// ListByModel returns all entries for modelID ordered by id ascending.
//
// Returns an empty slice (not nil) if the model has no entries.
func (s *Store) ListByModel(ctx context.Context, modelID string) ([]ir.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM model_undo_log
		WHERE model_id = ?
		ORDER BY id ASC
	`, modelID)
	if err != nil {
		return nil, storageErr("list", fmt.Errorf("query entries: %w", err))
	}
	defer rows.Close()

	entries := []ir.LogEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr("list", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("list", fmt.Errorf("iterate entries: %w", err))
	}

	return entries, nil
}

// Head returns the entry with the maximum id for modelID.
// ok is false when the model has no entries.
func (s *Store) Head(ctx context.Context, modelID string) (entry ir.LogEntry, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM model_undo_log
		WHERE model_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, modelID)

	entry, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.LogEntry{}, false, nil
	}
	if err != nil {
		return ir.LogEntry{}, false, storageErr("head", err)
	}
	return entry, true, nil
}

// StatusCounts returns the number of entries per status for modelID.
// Statuses with no entries are absent from the map.
func (s *Store) StatusCounts(ctx context.Context, modelID string) (map[ir.Status]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM model_undo_log
		WHERE model_id = ?
		GROUP BY status
		ORDER BY status ASC
	`, modelID)
	if err != nil {
		return nil, storageErr("count", fmt.Errorf("query counts: %w", err))
	}
	defer rows.Close()

	counts := make(map[ir.Status]int64)
	for rows.Next() {
		var status int
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storageErr("count", fmt.Errorf("scan count: %w", err))
		}
		counts[ir.Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("count", fmt.Errorf("iterate counts: %w", err))
	}

	return counts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry scans one row selected with entryColumns.
// sql.ErrNoRows is returned unwrapped so callers can test for it.
func scanEntry(row rowScanner) (ir.LogEntry, error) {
	var entry ir.LogEntry
	var opType string
	var status int

	err := row.Scan(
		&entry.ID, &entry.ModelID, &entry.TableName, &opType,
		&entry.OldData, &entry.NewData, &status, &entry.OperatorAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.LogEntry{}, err
	}
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	entry.OpType = ir.OpType(opType)
	entry.Status = ir.Status(status)
	return entry, nil
}
