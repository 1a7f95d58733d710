package ir

import (
	"fmt"
	"strings"
)

// Status is the position of a log entry in the undo/redo state machine.
type Status int

const (
	// StatusNormal marks a freshly recorded entry.
	StatusNormal Status = 0

	// StatusUndone marks an entry whose change has been reversed.
	StatusUndone Status = 1

	// StatusRedone marks an undone entry that has been reapplied.
	StatusRedone Status = 2
)

var statusNames = map[Status]string{
	StatusNormal: "normal",
	StatusUndone: "undone",
	StatusRedone: "redone",
}

// String returns the lowercase status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// MarshalText implements encoding.TextMarshaler so JSON output carries names.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a status name ("normal", "undone", "redone").
// Matching is case-insensitive.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// OpType is the nature of a recorded mutation.
type OpType string

const (
	OpInsert OpType = "insert"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Valid reports whether o is insert, update or delete.
func (o OpType) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// ParseOpType parses an operation type case-insensitively, so both
// "update" and "UPDATE" are accepted.
func ParseOpType(s string) (OpType, error) {
	op := OpType(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown op type %q: must be insert, update or delete", s)
	}
	return op, nil
}

// LogEntry is one recorded mutation.
//
// ID is assigned by the store and is the authoritative recency order.
// OperatorAt is epoch milliseconds and is non-decreasing in ID order.
type LogEntry struct {
	ID         int64   `json:"id"`
	ModelID    string  `json:"model_id"`
	TableName  string  `json:"table_name"`
	OpType     OpType  `json:"op_type"`
	OldData    Payload `json:"old_data"`
	NewData    Payload `json:"new_data"`
	Status     Status  `json:"status"`
	OperatorAt int64   `json:"operator_at"`
}

// Draft is a mutation that has not been stored yet.
// OperatorAt of zero means the store assigns the recording time.
type Draft struct {
	ModelID    string  `json:"model_id"`
	TableName  string  `json:"table_name"`
	OpType     OpType  `json:"op_type"`
	OldData    Payload `json:"old_data"`
	NewData    Payload `json:"new_data"`
	OperatorAt int64   `json:"operator_at,omitempty"`
}

// Normalize returns a copy of d with the op type lowercased.
// Identifiers are left untouched.
func (d Draft) Normalize() Draft {
	d.OpType = OpType(strings.ToLower(strings.TrimSpace(string(d.OpType))))
	return d
}

// Validate checks that d describes a well-formed mutation.
// Insert carries only new data, delete only old data, update both.
func (d Draft) Validate() error {
	if msg := checkIdent(d.ModelID); msg != "" {
		return &ValidationError{Field: "model_id", Message: msg}
	}
	if msg := checkIdent(d.TableName); msg != "" {
		return &ValidationError{Field: "table_name", Message: msg}
	}
	if !d.OpType.Valid() {
		return &ValidationError{Field: "op_type", Message: fmt.Sprintf("unknown op type %q", d.OpType)}
	}
	if d.OperatorAt < 0 {
		return &ValidationError{Field: "operator_at", Message: "must be non-negative"}
	}
	if !d.OldData.ValidText() {
		return &ValidationError{Field: "old_data", Message: "must be valid UTF-8"}
	}
	if !d.NewData.ValidText() {
		return &ValidationError{Field: "new_data", Message: "must be valid UTF-8"}
	}

	switch d.OpType {
	case OpInsert:
		if d.NewData.IsNull() {
			return &ValidationError{Field: "new_data", Message: "is required for insert"}
		}
	case OpDelete:
		if d.OldData.IsNull() {
			return &ValidationError{Field: "old_data", Message: "is required for delete"}
		}
	case OpUpdate:
		if d.OldData.IsNull() {
			return &ValidationError{Field: "old_data", Message: "is required for update"}
		}
		if d.NewData.IsNull() {
			return &ValidationError{Field: "new_data", Message: "is required for update"}
		}
	}
	return nil
}

// ValidationError reports a malformed draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
