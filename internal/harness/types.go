package harness

import "github.com/roach88/undolog/internal/ir"

// OutcomeOK is the trace outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Model   string `json:"model"`
	Outcome string `json:"outcome"` // OutcomeOK or an undo error code

	// Entry is the entry the step returned. Nil when the step failed.
	Entry *ir.LogEntry `json:"entry,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every flow step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final holds the history of every model the scenario touched,
	// captured after the flow ran.
	Final map[string][]ir.LogEntry `json:"final,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  make(map[string][]ir.LogEntry),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(step int, action, model, outcome string, entry *ir.LogEntry) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:    step,
		Action:  action,
		Model:   model,
		Outcome: outcome,
		Entry:   entry,
	})
}
