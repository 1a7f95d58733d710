package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <model-id>",
		Short: "Mark the model's head entry as undone",
		Long: `Undo the latest change of a model.

The head entry moves to the undone state and is printed so its old data can
be restored. A model with nothing to undo is reported as a no-op and exits 0.

Exit codes:
  0 - Undone, or nothing to undo
  1 - Another writer changed the head first
  2 - Command error (database, flags)

Examples:
  undolog undo doc-1
  undolog undo doc-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(rootOpts, args[0], cmd)
		},
	}
}

// NewRedoCommand creates the redo command.
func NewRedoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redo <model-id>",
		Short: "Mark the model's undone head entry as redone",
		Long: `Redo the most recently undone change of a model.

Only an undone head can be redone. The entry moves to the redone state and is
printed so its new data can be reapplied. A model with nothing to redo is
reported as a no-op and exits 0.

Examples:
  undolog redo doc-1
  undolog redo doc-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedo(rootOpts, args[0], cmd)
		},
	}
}

func runUndo(opts *RootOptions, modelID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := ctrl.Undo(context.Background(), modelID)
	if err != nil {
		return controllerError(f, "undo", err)
	}

	if f.Format == "json" {
		return f.Success(entry)
	}
	return f.Success("Undone " + formatEntry(entry))
}

func runRedo(opts *RootOptions, modelID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := ctrl.Redo(context.Background(), modelID)
	if err != nil {
		return controllerError(f, "redo", err)
	}

	if f.Format == "json" {
		return f.Success(entry)
	}
	return f.Success("Redone " + formatEntry(entry))
}
