package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/undo"
)

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	ModelID string        `json:"model_id"`
	Entries []ir.LogEntry `json:"entries"`
	Count   int           `json:"count"`
}

// StateResult is the JSON payload of the state command.
type StateResult struct {
	ModelID string       `json:"model_id"`
	State   undo.State   `json:"state"`
	CanUndo bool         `json:"can_undo"`
	CanRedo bool         `json:"can_redo"`
	Head    *ir.LogEntry `json:"head,omitempty"`

	// Counts holds the number of entries per status; absent statuses have none.
	Counts map[ir.Status]int64 `json:"counts"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <model-id>",
		Short: "List a model's entries, oldest first",
		Long: `List every entry of a model ordered by id, oldest first.

Examples:
  undolog history doc-1
  undolog history doc-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], cmd)
		},
	}
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state <model-id>",
		Short: "Show a model's undo/redo state",
		Long: `Show the derived state of a model and its head entry.

States:
  empty        - no entries
  normal_head  - head is a fresh change (undo available)
  undone_head  - head was undone (redo available)
  redone_head  - head was redone (undo available)

Examples:
  undolog state doc-1
  undolog state doc-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(rootOpts, args[0], cmd)
		},
	}
}

func runHistory(opts *RootOptions, modelID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := ctrl.History(context.Background(), modelID)
	if err != nil {
		return controllerError(f, "history", err)
	}

	if f.Format == "json" {
		return f.Success(HistoryResult{
			ModelID: modelID,
			Entries: entries,
			Count:   len(entries),
		})
	}
	return f.Success(formatEntries(entries))
}

func runState(opts *RootOptions, modelID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	state, head, err := ctrl.State(ctx, modelID)
	if err != nil {
		return controllerError(f, "state", err)
	}
	counts, err := st.StatusCounts(ctx, modelID)
	if err != nil {
		return controllerError(f, "state", err)
	}

	result := StateResult{
		ModelID: modelID,
		State:   state,
		CanUndo: state.CanUndo(),
		CanRedo: state.CanRedo(),
		Counts:  counts,
	}
	if state != undo.StateEmpty {
		result.Head = &head
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	return f.Success(formatState(result))
}

func formatState(r StateResult) string {
	var avail []string
	if r.CanUndo {
		avail = append(avail, "undo")
	}
	if r.CanRedo {
		avail = append(avail, "redo")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", r.ModelID, r.State)
	if len(avail) > 0 {
		fmt.Fprintf(&b, " (can %s)", strings.Join(avail, ", "))
	}
	if r.Head != nil {
		fmt.Fprintf(&b, "\nhead: %s", formatEntry(*r.Head))
	}
	if len(r.Counts) > 0 {
		fmt.Fprintf(&b, "\nentries: %s", formatCounts(r.Counts))
	}
	return b.String()
}

// formatCounts renders per-status counts in status order, e.g.
// "2 normal, 1 undone". Statuses with no entries are skipped.
func formatCounts(counts map[ir.Status]int64) string {
	var parts []string
	for _, s := range []ir.Status{ir.StatusNormal, ir.StatusUndone, ir.StatusRedone} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
