// Package harness runs undo/redo scenarios against a real store.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: record_undo_redo
//	description: "What this scenario validates"
//	clock: { start: 1000, step: 1 }   # optional
//	setup:
//	  - action: record
//	    model: m1
//	    table: t1
//	    op_type: update
//	    old: "a"
//	    new: "b"
//	flow:
//	  - action: undo
//	    model: m1
//	    expect:
//	      status: undone
//	      old: "a"
//	  - action: undo
//	    model: m1
//	    expect:
//	      error: NOTHING_TO_UNDO
//	assertions:
//	  - type: history_count
//	    model: m1
//	    count: 1
//	  - type: state
//	    model: m1
//	    state: undone_head
//
// Setup steps must succeed and are not part of the trace. Flow steps are
// traced, and each optional expect clause is checked against the entry the
// step returned or the error code it failed with.
//
// # Assertion Types
//
//   - history_count: the model has exactly count entries
//   - history_statuses: the model's entry statuses, in id order
//   - state: the model's derived state (empty, normal_head, undone_head, redone_head)
//   - trace_count: action appears exactly count times in the trace
//   - trace_order: actions appear in the trace in this order
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite database with a
// testutil.DeterministicClock, so ids and operator_at values are identical
// across runs and traces can be compared against golden files.
package harness
