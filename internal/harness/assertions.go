package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/undolog/internal/undo"
)

// AssertionContext provides what assertions need to read final state.
type AssertionContext struct {
	Controller *undo.Controller
	Ctx        context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Step, event.Action, event.Model, event.Outcome)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertHistoryCount:
		return assertHistoryCount(actx, a)
	case AssertHistoryStatuses:
		return assertHistoryStatuses(actx, a)
	case AssertState:
		return assertState(actx, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertHistoryCount checks the number of entries the model has.
func assertHistoryCount(actx *AssertionContext, a Assertion) error {
	history, err := actx.Controller.History(actx.Ctx, a.Model)
	if err != nil {
		return err
	}
	if len(history) != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d entries for %s", a.Count, a.Model),
			Actual:   fmt.Sprintf("%d entries", len(history)),
		}
	}
	return nil
}

// assertHistoryStatuses checks the model's statuses in id order.
func assertHistoryStatuses(actx *AssertionContext, a Assertion) error {
	history, err := actx.Controller.History(actx.Ctx, a.Model)
	if err != nil {
		return err
	}

	actual := make([]string, len(history))
	for i, e := range history {
		actual[i] = e.Status.String()
	}
	expected := a.Statuses
	if expected == nil {
		expected = []string{}
	}

	if !slices.Equal(actual, expected) {
		return &AssertionError{
			Type:     AssertHistoryStatuses,
			Expected: fmt.Sprintf("%v for %s", expected, a.Model),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertState checks the model's derived state.
func assertState(actx *AssertionContext, a Assertion) error {
	state, _, err := actx.Controller.State(actx.Ctx, a.Model)
	if err != nil {
		return err
	}
	if state != undo.State(a.State) {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("state %s for %s", a.State, a.Model),
			Actual:   fmt.Sprintf("state %s", state),
		}
	}
	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == a.Action {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed),
// and the same action may appear more than once in the expected list.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Actions) && event.Action == a.Actions[next] {
			next++
		}
	}

	if next < len(a.Actions) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("actions in order: %v", a.Actions),
			Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(a.Actions), a.Actions[next]),
			Trace:    trace,
		}
	}
	return nil
}
