package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/undolog/internal/ir"
)

// TraceSnapshot captures the trace and final histories of a scenario run.
// Serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Final        map[string][]ir.LogEntry
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Null payloads are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":    event.Step,
			"action":  event.Action,
			"model":   event.Model,
			"outcome": event.Outcome,
		}
		if event.Entry != nil {
			eventMap["entry"] = entryToCanonical(*event.Entry)
		}
		traceList[i] = eventMap
	}

	final := make(map[string]any, len(s.Final))
	for model, entries := range s.Final {
		list := make([]any, len(entries))
		for i, e := range entries {
			list[i] = entryToCanonical(e)
		}
		final[model] = list
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         final,
	}
}

func entryToCanonical(e ir.LogEntry) map[string]any {
	m := map[string]any{
		"id":          e.ID,
		"model_id":    e.ModelID,
		"table_name":  e.TableName,
		"op_type":     e.OpType,
		"status":      e.Status,
		"operator_at": e.OperatorAt,
	}
	if !e.OldData.IsNull() {
		m["old_data"] = e.OldData
	}
	if !e.NewData.IsNull() {
		m["new_data"] = e.NewData
	}
	return m
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file stored in testdata/scenarios/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "scenarios", GoldenDirName)),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
