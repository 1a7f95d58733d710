package harness

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/testutil"
)

func strPtr(s string) *string { return &s }

func recordStep(model, oldData, newData string) Step {
	return Step{
		Action: ActionRecord,
		Model:  model,
		Table:  "t1",
		OpType: "update",
		Old:    strPtr(oldData),
		New:    strPtr(newData),
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow: []Step{
			recordStep("m1", "a", "b"),
		},
		Assertions: []Assertion{
			{Type: AssertHistoryCount, Model: "m1", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.Equal(t, OutcomeOK, ev.Outcome)
	require.NotNil(t, ev.Entry)
	assert.Equal(t, int64(1), ev.Entry.ID)
	assert.Equal(t, testutil.DefaultEpochMillis, ev.Entry.OperatorAt)

	require.Len(t, result.Final["m1"], 1)
}

func TestRun_SetupNotTraced(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_setup",
		Description: "Setup steps are applied but not traced",
		Setup: []Step{
			recordStep("m1", "a", "b"),
			recordStep("m1", "b", "c"),
		},
		Flow: []Step{
			{Action: ActionUndo, Model: "m1", Expect: &ExpectClause{ID: 2, Status: "undone", Old: strPtr("b")}},
		},
		Assertions: []Assertion{
			{Type: AssertHistoryStatuses, Model: "m1", Statuses: []string{"normal", "undone"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 1)
}

func TestRun_SetupFailureIsFatal(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_setup",
		Description: "Undo on an empty model cannot be setup",
		Setup:       []Step{{Action: ActionUndo, Model: "m1"}},
		Flow:        []Step{recordStep("m1", "a", "b")},
		Assertions:  []Assertion{{Type: AssertHistoryCount, Model: "m1", Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute setup")
}

func TestRun_ExpectedErrorRecordedAsOutcome(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_error",
		Description: "Undo on an empty model",
		Flow: []Step{
			{Action: ActionUndo, Model: "m1", Expect: &ExpectClause{Error: "NOTHING_TO_UNDO"}},
		},
		Assertions: []Assertion{{Type: AssertState, Model: "m1", State: "empty"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "NOTHING_TO_UNDO", result.Trace[0].Outcome)
	assert.Nil(t, result.Trace[0].Entry)
}

func TestRun_ExpectMismatchesFailResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Every kind of expect mismatch",
		Flow: []Step{
			{Action: ActionUndo, Model: "m1"}, // no expect, fails
			recordStep("m1", "a", "b"),
			{Action: ActionRedo, Model: "m1", Expect: &ExpectClause{Status: "redone"}},
			{Action: ActionUndo, Model: "m1", Expect: &ExpectClause{Error: "NOTHING_TO_UNDO"}},
			{Action: ActionRedo, Model: "m1", Expect: &ExpectClause{ID: 9, Status: "normal", Old: strPtr("x"), New: strPtr("y")}},
			{Action: ActionRedo, Model: "m1", Expect: &ExpectClause{Error: "NOTHING_TO_UNDO"}},
		},
		Assertions: []Assertion{{Type: AssertHistoryCount, Model: "m1", Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "flow[0] undo m1: expected success, got NOTHING_TO_UNDO")
	assert.Contains(t, joined, "flow[2] redo m1: expected success, got NOTHING_TO_REDO")
	assert.Contains(t, joined, "flow[3] undo m1: expected error NOTHING_TO_UNDO, got success")
	assert.Contains(t, joined, "flow[5] redo m1: expected error NOTHING_TO_UNDO, got NOTHING_TO_REDO")
	assert.Contains(t, joined, "id = 1, expected 9")
	assert.Contains(t, joined, "status = redone, expected normal")
	assert.Contains(t, joined, `old = "a", expected "x"`)
	assert.Contains(t, joined, `new = "b", expected "y"`)
}

func TestRun_NullPayloadExpectation(t *testing.T) {
	scenario := &Scenario{
		Name:        "null_old",
		Description: "Undo of an insert exposes null old data",
		Flow: []Step{
			{Action: ActionRecord, Model: "m1", Table: "t1", OpType: "insert", New: strPtr("row")},
			{Action: ActionUndo, Model: "m1", Expect: &ExpectClause{Old: strPtr("")}},
		},
		Assertions: []Assertion{{Type: AssertState, Model: "m1", State: "undone_head"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `old = null, expected ""`)
}

func TestRun_ClockOverride(t *testing.T) {
	scenario := &Scenario{
		Name:        "clock",
		Description: "Custom clock start and step",
		Clock:       &ClockConfig{Start: 500, Step: 100},
		Flow: []Step{
			recordStep("m1", "a", "b"),
			recordStep("m1", "b", "c"),
		},
		Assertions: []Assertion{{Type: AssertHistoryCount, Model: "m1", Count: 2}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.Trace[0].Entry.OperatorAt)
	assert.Equal(t, int64(600), result.Trace[1].Entry.OperatorAt)
}

func TestRun_FinalCoversTouchedModels(t *testing.T) {
	scenario := &Scenario{
		Name:        "final",
		Description: "Final histories include every touched model",
		Flow: []Step{
			recordStep("m1", "a", "b"),
			{Action: ActionUndo, Model: "m2", Expect: &ExpectClause{Error: "NOTHING_TO_UNDO"}},
		},
		Assertions: []Assertion{{Type: AssertHistoryCount, Model: "m2", Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Len(t, result.Final, 2)
	assert.Equal(t, []ir.LogEntry{}, result.Final["m2"])
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/linear_history.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scenario := &Scenario{
		Name:        "logged",
		Description: "Logger receives step events",
		Flow:        []Step{recordStep("m1", "a", "b")},
		Assertions:  []Assertion{{Type: AssertHistoryCount, Model: "m1", Count: 1}},
	}

	_, err := Run(scenario, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "flow step completed")
	assert.Contains(t, buf.String(), "recorded entry")
}
