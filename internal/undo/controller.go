package undo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/undolog/internal/ir"
)

// LogStore is the storage the Controller needs. *store.Store implements it.
type LogStore interface {
	// Record prunes the model's Undone and Redone entries and inserts d as
	// a Normal entry, atomically. Returns the stored entry and the number
	// of pruned rows.
	Record(ctx context.Context, d ir.Draft) (ir.LogEntry, int64, error)

	// Head returns the maximum-id entry of modelID; ok is false if none.
	Head(ctx context.Context, modelID string) (entry ir.LogEntry, ok bool, err error)

	// ListByModel returns the model's entries ordered by id ascending.
	ListByModel(ctx context.Context, modelID string) ([]ir.LogEntry, error)

	// UpdateHeadStatus sets id's status to next if it is still expected and
	// id is still the model's head. Returns false if either check failed.
	UpdateHeadStatus(ctx context.Context, modelID string, id int64, expected, next ir.Status) (bool, error)
}

// State is the derived undo/redo state of a model.
type State string

const (
	StateEmpty      State = "empty"
	StateNormalHead State = "normal_head"
	StateUndoneHead State = "undone_head"
	StateRedoneHead State = "redone_head"
)

// CanUndo reports whether Undo would succeed from s, absent concurrent writers.
func (s State) CanUndo() bool {
	return s == StateNormalHead || s == StateRedoneHead
}

// CanRedo reports whether Redo would succeed from s, absent concurrent writers.
func (s State) CanRedo() bool {
	return s == StateUndoneHead
}

// Controller drives the undo/redo state machine for any number of models.
//
// Controller holds no per-model state; it is safe for concurrent use as long
// as the LogStore is.
type Controller struct {
	store  LogStore
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a Controller over store.
func New(store LogStore, opts ...Option) *Controller {
	c := &Controller{store: store}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Record logs a mutation of modelID and makes it the new head.
//
// Any Undone or Redone entries of the model are discarded in the same
// transaction, so after Record the model has a single linear history ending
// in a Normal entry. Entries of other models are never touched.
func (c *Controller) Record(ctx context.Context, modelID string, opType ir.OpType, tableName string, oldData, newData ir.Payload) (ir.LogEntry, error) {
	d := ir.Draft{
		ModelID:   modelID,
		TableName: tableName,
		OpType:    opType,
		OldData:   oldData,
		NewData:   newData,
	}

	entry, pruned, err := c.store.Record(ctx, d)
	if err != nil {
		var verr *ir.ValidationError
		if errors.As(err, &verr) {
			return ir.LogEntry{}, invalidEntry(modelID, verr)
		}
		return ir.LogEntry{}, fmt.Errorf("record %s: %w", modelID, err)
	}

	c.logger.Debug("recorded entry",
		"model", entry.ModelID,
		"id", entry.ID,
		"op", entry.OpType,
		"table", entry.TableName,
		"pruned", pruned,
	)
	return entry, nil
}

// Undo marks the head entry of modelID as Undone and returns it, so the
// caller can restore its OldData.
//
// Fails with ErrNothingToUndo when the model is empty or its head is already
// Undone, and with ErrConcurrentModification when the head changed between
// the read and the update.
func (c *Controller) Undo(ctx context.Context, modelID string) (ir.LogEntry, error) {
	head, ok, err := c.store.Head(ctx, modelID)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("undo %s: %w", modelID, err)
	}
	if !stateOf(head, ok).CanUndo() {
		return ir.LogEntry{}, nothingToUndo(modelID)
	}

	return c.transition(ctx, "undo", head, ir.StatusUndone)
}

// Redo marks the head entry of modelID as Redone and returns it, so the
// caller can reapply its NewData.
//
// Fails with ErrNothingToRedo unless the head entry is Undone, and with
// ErrConcurrentModification when the head changed between the read and the
// update.
func (c *Controller) Redo(ctx context.Context, modelID string) (ir.LogEntry, error) {
	head, ok, err := c.store.Head(ctx, modelID)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("redo %s: %w", modelID, err)
	}
	if !stateOf(head, ok).CanRedo() {
		return ir.LogEntry{}, nothingToRedo(modelID)
	}

	return c.transition(ctx, "redo", head, ir.StatusRedone)
}

// History returns every entry of modelID ordered by id ascending.
func (c *Controller) History(ctx context.Context, modelID string) ([]ir.LogEntry, error) {
	entries, err := c.store.ListByModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", modelID, err)
	}
	return entries, nil
}

// State returns the derived state of modelID and its head entry, if any.
func (c *Controller) State(ctx context.Context, modelID string) (State, ir.LogEntry, error) {
	head, ok, err := c.store.Head(ctx, modelID)
	if err != nil {
		return "", ir.LogEntry{}, fmt.Errorf("state %s: %w", modelID, err)
	}
	return stateOf(head, ok), head, nil
}

func (c *Controller) transition(ctx context.Context, op string, head ir.LogEntry, next ir.Status) (ir.LogEntry, error) {
	applied, err := c.store.UpdateHeadStatus(ctx, head.ModelID, head.ID, head.Status, next)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("%s %s: %w", op, head.ModelID, err)
	}
	if !applied {
		c.logger.Warn("status update lost race",
			"op", op,
			"model", head.ModelID,
			"id", head.ID,
			"expected", head.Status,
		)
		return ir.LogEntry{}, concurrentModification(head.ModelID, head.ID)
	}

	c.logger.Debug("status changed",
		"op", op,
		"model", head.ModelID,
		"id", head.ID,
		"from", head.Status,
		"to", next,
	)

	head.Status = next
	return head, nil
}

func stateOf(head ir.LogEntry, ok bool) State {
	if !ok {
		return StateEmpty
	}
	switch head.Status {
	case ir.StatusUndone:
		return StateUndoneHead
	case ir.StatusRedone:
		return StateRedoneHead
	default:
		return StateNormalHead
	}
}
