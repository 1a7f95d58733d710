package store

import (
	"errors"
	"fmt"
)

// StorageError reports a failure of the storage backend, including a context
// that expired mid-operation.
type StorageError struct {
	// Op names the store operation that failed (e.g. "record", "list").
	Op string

	// Err is the underlying driver or context error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err is or wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// storageErr wraps err as a *StorageError for op.
// Errors that already are storage errors are returned unchanged.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
