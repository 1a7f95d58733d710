package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/undo"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Table string
	Op    string
	Old   string
	New   string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <model-id>",
		Short: "Record a mutation as the model's new head",
		Long: `Record a mutation of a model.

The new entry becomes the head of the model's history in the normal state.
Any entries of the model that were undone or redone are discarded first.

--old and --new carry the row snapshot before and after the mutation.
Leaving a flag out stores null; an insert needs --new, a delete needs --old
and an update needs both.

Examples:
  undolog record doc-1 --table documents --op insert --new '{"title":"a"}'
  undolog record doc-1 --table documents --old '{"title":"a"}' --new '{"title":"b"}'
  undolog record doc-1 --table documents --op delete --old '{"title":"b"}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table the mutated row belongs to (required)")
	_ = cmd.MarkFlagRequired("table")
	cmd.Flags().StringVar(&opts.Op, "op", string(ir.OpUpdate), "operation type (insert|update|delete)")
	cmd.Flags().StringVar(&opts.Old, "old", "", "row snapshot before the mutation (omit for null)")
	cmd.Flags().StringVar(&opts.New, "new", "", "row snapshot after the mutation (omit for null)")

	return cmd
}

func runRecord(opts *RecordOptions, modelID string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	var oldData, newData ir.Payload
	if cmd.Flags().Changed("old") {
		oldData = ir.Text(opts.Old)
	}
	if cmd.Flags().Changed("new") {
		newData = ir.Text(opts.New)
	}

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := ctrl.Record(ctx, modelID, ir.OpType(opts.Op), opts.Table, oldData, newData)
	if err != nil {
		return controllerError(f, "record", err)
	}

	if f.Format == "json" {
		return f.Success(entry)
	}
	return f.Success("Recorded " + formatEntry(entry))
}

// controllerError reports a controller failure and maps it to an exit code.
//
// NOTHING_TO_UNDO and NOTHING_TO_REDO are reported as no-ops and return nil.
// A lost race exits with ExitFailure; invalid input and storage failures
// exit with ExitCommandError.
func controllerError(f *OutputFormatter, op string, err error) error {
	var uerr *undo.Error
	if !errors.As(err, &uerr) {
		if f.Format == "json" {
			_ = f.Error("STORAGE_ERROR", err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, op+" failed", err)
	}

	code := string(uerr.Code)
	switch {
	case undo.IsNoop(err):
		return f.Noop(code, fmt.Sprintf("%s for model %s", uerr.Message, uerr.ModelID))
	case undo.IsConcurrentModification(err):
		if f.Format == "json" {
			_ = f.Error(code, uerr.Error(), map[string]any{"model_id": uerr.ModelID, "entry_id": uerr.EntryID})
		}
		return WrapExitError(ExitFailure, op+" lost a race with another writer", err)
	default:
		if f.Format == "json" {
			_ = f.Error(code, uerr.Error(), nil)
		}
		return WrapExitError(ExitCommandError, op+" rejected", err)
	}
}
