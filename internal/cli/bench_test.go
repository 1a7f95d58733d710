package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/testutil"
)

type benchResponse struct {
	Status string      `json:"status"`
	Data   BenchResult `json:"data"`
}

func TestBenchCommand(t *testing.T) {
	out, _, err := executeRoot(t, "bench", "--db", tempDB(t), "--format", "json",
		"--workers", "4", "--ops", "30", "--models", "2")
	require.NoError(t, err)

	resp := decodeJSON[benchResponse](t, out)
	r := resp.Data
	assert.Equal(t, 4, r.Workers)
	assert.Equal(t, 0, r.Violations)
	assert.Equal(t, int64(4*30), r.Records+r.Undos+r.Redos+r.Noops+r.Conflicts)
	assert.Positive(t, r.Records)
	assert.LessOrEqual(t, r.Rows[ir.StatusUndone]+r.Rows[ir.StatusRedone], int64(2), "at most one non-normal head per model")
}

func TestRunBenchSingleWorker(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := &BenchOptions{
		RootOptions: resolvedRootOptions(t, "json"),
		Workers:     1,
		Ops:         9,
		Models:      1,
		IDs:         testutil.NewSequentialIDGenerator("bench"),
	}

	require.NoError(t, runBench(opts, commandWithOutput(buf)))

	var resp benchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))

	// One worker cycles record, undo, redo with no contention.
	r := resp.Data
	assert.Equal(t, int64(3), r.Records)
	assert.Equal(t, int64(3), r.Undos)
	assert.Equal(t, int64(3), r.Redos)
	assert.Zero(t, r.Noops)
	assert.Zero(t, r.Conflicts)

	// Each record prunes the redone entry of the previous cycle, so only the
	// last cycle's entry remains.
	assert.Equal(t, map[ir.Status]int64{ir.StatusRedone: 1}, r.Rows)
}

func TestBenchRejectsBadFlags(t *testing.T) {
	_, _, err := executeRoot(t, "bench", "--db", tempDB(t), "--workers", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLinearViolations(t *testing.T) {
	entry := func(s ir.Status) ir.LogEntry { return ir.LogEntry{Status: s} }

	tests := []struct {
		name    string
		entries []ir.LogEntry
		want    int
	}{
		{"empty", nil, 0},
		{"undone head", []ir.LogEntry{entry(ir.StatusNormal), entry(ir.StatusUndone)}, 0},
		{"redone head", []ir.LogEntry{entry(ir.StatusRedone)}, 0},
		{"undone below head", []ir.LogEntry{entry(ir.StatusUndone), entry(ir.StatusNormal)}, 1},
		{"two stale", []ir.LogEntry{entry(ir.StatusRedone), entry(ir.StatusUndone), entry(ir.StatusNormal)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linearViolations(tt.entries))
		})
	}
}

func TestFormatBench(t *testing.T) {
	text := formatBench(BenchResult{
		Workers: 2, Models: 1, Records: 5, ElapsedMS: 12, OpsPerSec: 416.6,
		Rows: map[ir.Status]int64{ir.StatusNormal: 4, ir.StatusRedone: 1},
	})
	assert.Contains(t, text, "Workers:    2 across 1 model")
	assert.Contains(t, text, "Records:    5")
	assert.Contains(t, text, "Rows:       4 normal, 1 redone")
	assert.Contains(t, text, "12ms (417 ops/s)")
}
