package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/undolog/internal/ir"
	"github.com/roach88/undolog/internal/store"
	"github.com/roach88/undolog/internal/testutil"
	"github.com/roach88/undolog/internal/undo"
)

// Harness executes scenario steps against a controller.
type Harness struct {
	controller *undo.Controller
	logger     *slog.Logger
	models     []string // models touched, in first-use order
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the harness and its controller.
// Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database with a deterministic clock
//  2. Execute setup steps (must succeed)
//  3. Execute flow steps, tracing each and checking expect clauses
//  4. Capture the final history of every touched model
//  5. Evaluate assertions
//
// A failed expectation or assertion is recorded in Result.Errors. A storage
// failure aborts the run and is returned as an error.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	clock := testutil.NewDeterministicClock()
	if scenario.Clock != nil {
		clock = testutil.NewDeterministicClockAt(scenario.Clock.Start, scenario.Clock.Step)
	}

	st, err := store.Open(":memory:", store.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		controller: undo.New(st, undo.WithLogger(o.logger)),
		logger:     o.logger,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, model := range h.models {
		history, err := h.controller.History(ctx, model)
		if err != nil {
			return nil, fmt.Errorf("failed to read final history: %w", err)
		}
		result.Final[model] = history
	}

	actx := &AssertionContext{
		Controller: h.controller,
		Ctx:        ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. Any failure is fatal.
func (h *Harness) executeSetup(ctx context.Context, setup []Step) error {
	for i, step := range setup {
		entry, err := h.execute(ctx, step)
		if err != nil {
			return fmt.Errorf("setup step %d (%s %s): %w", i, step.Action, step.Model, err)
		}
		h.logger.Debug("setup step completed", "step", i, "action", step.Action, "id", entry.ID)
	}
	return nil
}

// executeFlow runs all flow steps and checks expect clauses.
//
// Controller rejections (undo.Error) are traced with their code as the
// outcome. Any other error means the store failed and aborts the flow.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		entry, err := h.execute(ctx, step)

		var uerr *undo.Error
		switch {
		case err == nil:
			result.AddTrace(i, step.Action, step.Model, OutcomeOK, &entry)
		case errors.As(err, &uerr):
			result.AddTrace(i, step.Action, step.Model, string(uerr.Code), nil)
		default:
			return fmt.Errorf("flow step %d (%s %s): %w", i, step.Action, step.Model, err)
		}

		for _, msg := range checkExpect(step, entry, uerr) {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: %s", i, step.Action, step.Model, msg))
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"action", step.Action,
			"model", step.Model,
			"outcome", result.Trace[len(result.Trace)-1].Outcome,
		)
	}
	return nil
}

func (h *Harness) execute(ctx context.Context, step Step) (ir.LogEntry, error) {
	h.touch(step.Model)

	switch step.Action {
	case ActionRecord:
		return h.controller.Record(ctx, step.Model, ir.OpType(step.OpType), step.Table, payload(step.Old), payload(step.New))
	case ActionUndo:
		return h.controller.Undo(ctx, step.Model)
	case ActionRedo:
		return h.controller.Redo(ctx, step.Model)
	default:
		return ir.LogEntry{}, fmt.Errorf("unknown action %q", step.Action)
	}
}

func (h *Harness) touch(model string) {
	if slices.Contains(h.models, model) {
		return
	}
	h.models = append(h.models, model)
}

// checkExpect compares a step outcome against its expect clause.
// A step without expect must succeed.
func checkExpect(step Step, entry ir.LogEntry, uerr *undo.Error) []string {
	exp := step.Expect
	if exp == nil {
		if uerr != nil {
			return []string{fmt.Sprintf("expected success, got %s", uerr.Code)}
		}
		return nil
	}

	if exp.Error != "" {
		if uerr == nil {
			return []string{fmt.Sprintf("expected error %s, got success", exp.Error)}
		}
		if string(uerr.Code) != exp.Error {
			return []string{fmt.Sprintf("expected error %s, got %s", exp.Error, uerr.Code)}
		}
		return nil
	}

	if uerr != nil {
		return []string{fmt.Sprintf("expected success, got %s", uerr.Code)}
	}

	var msgs []string
	if exp.ID != 0 && exp.ID != entry.ID {
		msgs = append(msgs, fmt.Sprintf("id = %d, expected %d", entry.ID, exp.ID))
	}
	if exp.Status != "" && exp.Status != entry.Status.String() {
		msgs = append(msgs, fmt.Sprintf("status = %s, expected %s", entry.Status, exp.Status))
	}
	if exp.Old != nil && !payloadEquals(entry.OldData, *exp.Old) {
		msgs = append(msgs, fmt.Sprintf("old = %s, expected %q", describePayload(entry.OldData), *exp.Old))
	}
	if exp.New != nil && !payloadEquals(entry.NewData, *exp.New) {
		msgs = append(msgs, fmt.Sprintf("new = %s, expected %q", describePayload(entry.NewData), *exp.New))
	}
	return msgs
}

func payload(s *string) ir.Payload {
	if s == nil {
		return nil
	}
	return ir.Text(*s)
}

func payloadEquals(p ir.Payload, want string) bool {
	return !p.IsNull() && p.String() == want
}

func describePayload(p ir.Payload) string {
	if p.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%q", p.String())
}
