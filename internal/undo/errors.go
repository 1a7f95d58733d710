package undo

import (
	"errors"
	"fmt"
)

// Error is a domain-level rejection from the Controller.
//
// Errors carry a Code so callers can branch on the category with errors.Is
// against the package sentinels, while Message, ModelID and EntryID keep the
// details of the specific failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ModelID identifies the affected model, if any.
	ModelID string

	// EntryID identifies the affected log entry, if any.
	EntryID int64

	// Err is the underlying cause (validation errors only).
	Err error
}

// ErrorCode categorizes controller errors.
type ErrorCode string

const (
	// CodeNothingToUndo means the model has no entry in Normal or Redone
	// state at its head.
	CodeNothingToUndo ErrorCode = "NOTHING_TO_UNDO"

	// CodeNothingToRedo means the model's head entry is not Undone.
	CodeNothingToRedo ErrorCode = "NOTHING_TO_REDO"

	// CodeConcurrentModification means a conditional status update lost a
	// race with another operation on the same model.
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"

	// CodeInvalidEntry means the mutation passed to Record is malformed.
	CodeInvalidEntry ErrorCode = "INVALID_ENTRY"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrNothingToUndo          = &Error{Code: CodeNothingToUndo, Message: "nothing to undo"}
	ErrNothingToRedo          = &Error{Code: CodeNothingToRedo, Message: "nothing to redo"}
	ErrConcurrentModification = &Error{Code: CodeConcurrentModification, Message: "entry was modified concurrently"}
	ErrInvalidEntry           = &Error{Code: CodeInvalidEntry, Message: "invalid log entry"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.ModelID != "" && e.EntryID != 0:
		msg = fmt.Sprintf("%s (model=%s, entry=%d)", msg, e.ModelID, e.EntryID)
	case e.ModelID != "":
		msg = fmt.Sprintf("%s (model=%s)", msg, e.ModelID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsNothingToUndo returns true if err is a NOTHING_TO_UNDO error.
func IsNothingToUndo(err error) bool {
	return errors.Is(err, ErrNothingToUndo)
}

// IsNothingToRedo returns true if err is a NOTHING_TO_REDO error.
func IsNothingToRedo(err error) bool {
	return errors.Is(err, ErrNothingToRedo)
}

// IsNoop returns true for rejections that callers should report as a no-op
// rather than a failure.
func IsNoop(err error) bool {
	return IsNothingToUndo(err) || IsNothingToRedo(err)
}

// IsConcurrentModification returns true if err is a CONCURRENT_MODIFICATION error.
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsInvalidEntry returns true if err is an INVALID_ENTRY error.
func IsInvalidEntry(err error) bool {
	return errors.Is(err, ErrInvalidEntry)
}

func nothingToUndo(modelID string) *Error {
	return &Error{Code: CodeNothingToUndo, Message: "nothing to undo", ModelID: modelID}
}

func nothingToRedo(modelID string) *Error {
	return &Error{Code: CodeNothingToRedo, Message: "nothing to redo", ModelID: modelID}
}

func concurrentModification(modelID string, entryID int64) *Error {
	return &Error{
		Code:    CodeConcurrentModification,
		Message: "head entry changed before status update",
		ModelID: modelID,
		EntryID: entryID,
	}
}

func invalidEntry(modelID string, cause error) *Error {
	return &Error{Code: CodeInvalidEntry, Message: "invalid log entry", ModelID: modelID, Err: cause}
}
