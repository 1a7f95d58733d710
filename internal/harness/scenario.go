package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/undo"
)

// Scenario defines an undo/redo test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clock overrides the deterministic clock. Optional.
	Clock *ClockConfig `yaml:"clock,omitempty"`

	// Setup steps run before the flow. They must succeed and are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the traced steps, each with an optional expect clause.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and final histories.
	Assertions []Assertion `yaml:"assertions"`
}

// ClockConfig sets the first operator_at value and the increment per record.
type ClockConfig struct {
	Start int64 `yaml:"start"`
	Step  int64 `yaml:"step"`
}

// Step is a single controller operation.
type Step struct {
	// Action is one of record, undo, redo.
	Action string `yaml:"action"`

	// Model is the model id the step acts on.
	Model string `yaml:"model"`

	// Table, OpType, Old and New are used by record only.
	// An absent Old or New is recorded as null.
	Table  string  `yaml:"table,omitempty"`
	OpType string  `yaml:"op_type,omitempty"`
	Old    *string `yaml:"old,omitempty"`
	New    *string `yaml:"new,omitempty"`

	// Expect is checked against the step's outcome. Optional; a step
	// without expect must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
// Only the fields that are set are compared.
type ExpectClause struct {
	// Error is the expected undo error code (e.g. NOTHING_TO_UNDO).
	// When set, the step must fail with that code.
	Error string `yaml:"error,omitempty"`

	// ID is the expected entry id.
	ID int64 `yaml:"id,omitempty"`

	// Status is the expected entry status (normal, undone, redone).
	Status string `yaml:"status,omitempty"`

	// Old and New are the expected payloads.
	Old *string `yaml:"old,omitempty"`
	New *string `yaml:"new,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Model is the model id (history_count, history_statuses, state).
	Model string `yaml:"model,omitempty"`

	// Count is the expected number (history_count, trace_count).
	Count int `yaml:"count,omitempty"`

	// Statuses is the expected status sequence (history_statuses).
	Statuses []string `yaml:"statuses,omitempty"`

	// State is the expected derived state (state).
	State string `yaml:"state,omitempty"`

	// Action is the traced action (trace_count).
	Action string `yaml:"action,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Step action constants.
const (
	ActionRecord = "record"
	ActionUndo   = "undo"
	ActionRedo   = "redo"
)

// Assertion type constants.
const (
	AssertHistoryCount    = "history_count"
	AssertHistoryStatuses = "history_statuses"
	AssertState           = "state"
	AssertTraceCount      = "trace_count"
	AssertTraceOrder      = "trace_order"
)

var validActions = []string{ActionRecord, ActionUndo, ActionRedo}

var validStates = []undo.State{undo.StateEmpty, undo.StateNormalHead, undo.StateUndoneHead, undo.StateRedoneHead}

var validCodes = []undo.ErrorCode{
	undo.CodeNothingToUndo,
	undo.CodeNothingToRedo,
	undo.CodeConcurrentModification,
	undo.CodeInvalidEntry,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Clock != nil && s.Clock.Step < 0 {
		return fmt.Errorf("clock.step must be non-negative")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	if !slices.Contains(validActions, step.Action) {
		return fmt.Errorf("unknown action %q: must be one of %v", step.Action, validActions)
	}
	if step.Model == "" {
		return fmt.Errorf("model is required")
	}
	if step.Action != ActionRecord && (step.Table != "" || step.OpType != "" || step.Old != nil || step.New != nil) {
		return fmt.Errorf("table, op_type, old and new are only valid for record")
	}

	exp := step.Expect
	if exp == nil {
		return nil
	}
	if exp.Error != "" {
		if !slices.Contains(validCodes, undo.ErrorCode(exp.Error)) {
			return fmt.Errorf("expect: unknown error code %q", exp.Error)
		}
		if exp.ID != 0 || exp.Status != "" || exp.Old != nil || exp.New != nil {
			return fmt.Errorf("expect: error cannot be combined with entry fields")
		}
	}
	if exp.Status != "" {
		if _, err := ir.ParseStatus(exp.Status); err != nil {
			return fmt.Errorf("expect: %w", err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertHistoryCount:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for history_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
	case AssertHistoryStatuses:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for history_statuses", index)
		}
		for _, s := range a.Statuses {
			if _, err := ir.ParseStatus(s); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertState:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for state", index)
		}
		if !slices.Contains(validStates, undo.State(a.State)) {
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
