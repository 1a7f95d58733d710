package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/ir"
)

// ModelIDGenerator generates model ids for seeded data.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type ModelIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 model ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
// Panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Models  int
	Entries int
	Table   string
	Op      string
	IDs     ModelIDGenerator
}

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Models  []string `json:"models"`
	Entries int      `json:"entries"`
	FirstID int64    `json:"first_id"`
	LastID  int64    `json:"last_id"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts, IDs: UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk-insert synthetic entries",
		Long: `Insert synthetic normal entries for a number of fresh models in a single
transaction. Either every entry is stored or none is.

Model ids are UUIDv7. Flags left unset fall back to the seed section of the
config file.

Examples:
  undolog seed
  undolog seed --models 5 --entries 1000 --table orders --op insert`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Models, "models", 0, "number of models to create (default from config)")
	cmd.Flags().IntVar(&opts.Entries, "entries", 0, "entries per model (default from config)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name for every entry (default from config)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "operation type for every entry (default from config)")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)
	opts.applyDefaults()

	if opts.Models < 1 || opts.Entries < 1 {
		return NewExitError(ExitCommandError, "--models and --entries must be at least 1")
	}
	op, err := ir.ParseOpType(opts.Op)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --op", err)
	}

	models := make([]string, opts.Models)
	drafts := make([]ir.Draft, 0, opts.Models*opts.Entries)
	for i := range models {
		models[i] = opts.IDs.Generate()
		for seq := 1; seq <= opts.Entries; seq++ {
			drafts = append(drafts, seedDraft(models[i], opts.Table, op, seq))
		}
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.InsertMany(ctx, drafts)
	if err != nil {
		return WrapExitError(ExitCommandError, "seed failed", err)
	}
	opts.Logger.Debug("seeded entries", "models", len(models), "entries", len(entries))

	result := SeedResult{
		Models:  models,
		Entries: len(entries),
		FirstID: entries[0].ID,
		LastID:  entries[len(entries)-1].ID,
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("Seeded %s across %s (ids %d-%d)",
		countNoun(result.Entries, "entry"), countNoun(len(models), "model"),
		result.FirstID, result.LastID))
}

func (o *SeedOptions) applyDefaults() {
	seed := o.Config.Seed
	if o.Models == 0 {
		o.Models = seed.Models
	}
	if o.Entries == 0 {
		o.Entries = seed.Entries
	}
	if o.Table == "" {
		o.Table = seed.Table
	}
	if o.Op == "" {
		o.Op = seed.OpType
	}
}

// seedDraft builds the seq-th synthetic mutation of a model. Payloads follow
// the op type: insert has only new data, delete only old data.
func seedDraft(modelID, table string, op ir.OpType, seq int) ir.Draft {
	d := ir.Draft{ModelID: modelID, TableName: table, OpType: op}
	if op != ir.OpInsert {
		d.OldData = ir.Text(fmt.Sprintf(`{"version":%d}`, seq-1))
	}
	if op != ir.OpDelete {
		d.NewData = ir.Text(fmt.Sprintf(`{"version":%d}`, seq))
	}
	return d
}
