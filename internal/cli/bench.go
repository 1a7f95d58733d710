package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/undo"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Workers int
	Ops     int
	Models  int
	IDs     ModelIDGenerator
}

// BenchResult is the JSON payload of the bench command.
type BenchResult struct {
	Workers    int     `json:"workers"`
	Models     int     `json:"models"`
	Records    int64   `json:"records"`
	Undos      int64   `json:"undos"`
	Redos      int64   `json:"redos"`
	Noops      int64   `json:"noops"`
	Conflicts  int64   `json:"conflicts"`
	Violations int     `json:"violations"`
	ElapsedMS  int64   `json:"elapsed_ms"`

	// Rows is the final number of stored entries per status, over all models.
	Rows map[ir.Status]int64 `json:"rows"`
	OpsPerSec  float64 `json:"ops_per_sec"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts, IDs: UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run concurrent record/undo/redo load",
		Long: `Run concurrent workers issuing record, undo and redo against a shared set
of models, then check that every model still has a single linear history
(only the head entry may be undone or redone).

Fewer models than workers means workers contend for the same heads; lost
races are counted as conflicts, not failures.

Exit codes:
  0 - Run completed and every history is linear
  1 - A history invariant was violated
  2 - Command error (database, flags)

Examples:
  undolog bench --db /tmp/bench.db
  undolog bench --workers 16 --ops 500 --models 2 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 8, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.Ops, "ops", 100, "operations per worker")
	cmd.Flags().IntVar(&opts.Models, "models", 4, "number of models shared by the workers")

	return cmd
}

type benchCounters struct {
	records, undos, redos, noops, conflicts atomic.Int64
}

func runBench(opts *BenchOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Workers < 1 || opts.Ops < 1 || opts.Models < 1 {
		return NewExitError(ExitCommandError, "--workers, --ops and --models must be at least 1")
	}

	ctrl, st, err := opts.openController()
	if err != nil {
		return err
	}
	defer st.Close()

	models := make([]string, opts.Models)
	for i := range models {
		models[i] = opts.IDs.Generate()
	}

	var c benchCounters
	start := time.Now()

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < opts.Ops; i++ {
				model := models[(w+i)%len(models)]
				if err := benchStep(ctx, ctrl, &c, model, w, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "bench failed", err)
	}
	elapsed := time.Since(start)

	violations := 0
	rows := make(map[ir.Status]int64)
	for _, model := range models {
		entries, err := ctrl.History(context.Background(), model)
		if err != nil {
			return WrapExitError(ExitCommandError, "bench verification failed", err)
		}
		violations += linearViolations(entries)

		counts, err := st.StatusCounts(context.Background(), model)
		if err != nil {
			return WrapExitError(ExitCommandError, "bench verification failed", err)
		}
		for s, n := range counts {
			rows[s] += n
		}
	}

	total := c.records.Load() + c.undos.Load() + c.redos.Load() + c.noops.Load() + c.conflicts.Load()
	result := BenchResult{
		Workers:    opts.Workers,
		Models:     opts.Models,
		Records:    c.records.Load(),
		Undos:      c.undos.Load(),
		Redos:      c.redos.Load(),
		Noops:      c.noops.Load(),
		Conflicts:  c.conflicts.Load(),
		Violations: violations,
		ElapsedMS:  elapsed.Milliseconds(),
		Rows:       rows,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		result.OpsPerSec = float64(total) / secs
	}
	opts.Logger.Info("bench complete", "ops", total, "conflicts", result.Conflicts, "elapsed", elapsed)

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		_ = f.Success(formatBench(result))
	}

	if violations > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s found", countNoun(violations, "history violation")))
	}
	return nil
}

// benchStep runs the i-th operation of worker w. Operations rotate through
// record, undo and redo so every state is visited.
func benchStep(ctx context.Context, ctrl *undo.Controller, c *benchCounters, model string, w, i int) error {
	var err error
	switch (w + i) % 3 {
	case 0:
		old := ir.Text(fmt.Sprintf(`{"worker":%d,"step":%d}`, w, i-1))
		next := ir.Text(fmt.Sprintf(`{"worker":%d,"step":%d}`, w, i))
		if _, err = ctrl.Record(ctx, model, ir.OpUpdate, "bench", old, next); err == nil {
			c.records.Add(1)
		}
	case 1:
		if _, err = ctrl.Undo(ctx, model); err == nil {
			c.undos.Add(1)
		}
	default:
		if _, err = ctrl.Redo(ctx, model); err == nil {
			c.redos.Add(1)
		}
	}

	switch {
	case err == nil:
		return nil
	case undo.IsNoop(err):
		c.noops.Add(1)
		return nil
	case undo.IsConcurrentModification(err):
		c.conflicts.Add(1)
		return nil
	default:
		return err
	}
}

// linearViolations counts entries below the head that are not Normal.
func linearViolations(entries []ir.LogEntry) int {
	n := 0
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Status != ir.StatusNormal {
			n++
		}
	}
	return n
}

func formatBench(r BenchResult) string {
	return fmt.Sprintf(`Workers:    %d across %s
Records:    %d
Undos:      %d
Redos:      %d
No-ops:     %d
Conflicts:  %d
Violations: %d
Rows:       %s
Elapsed:    %dms (%.0f ops/s)`,
		r.Workers, countNoun(r.Models, "model"),
		r.Records, r.Undos, r.Redos, r.Noops, r.Conflicts, r.Violations,
		formatCounts(r.Rows), r.ElapsedMS, r.OpsPerSec)
}
