// Package domain defines the core types, ports, and errors of the catalog
// data service.
package domain

import (
	"fmt"
	"strings"
)

// InvalidIdentifierError indicates a malformed logical table reference or
// partition key. Fatal — never retried.
type InvalidIdentifierError struct {
	Message string
}

func (e *InvalidIdentifierError) Error() string { return e.Message }

// ObjectNotFoundError indicates a missing key on the object store.
type ObjectNotFoundError struct {
	Key string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object %q not found", e.Key)
}

// StoreUnavailableError indicates a transient object-store or network fault.
// The gateway does not retry; the caller decides.
type StoreUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("object store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// NoDataFoundError indicates a table prefix enumerated to zero matching
// Parquet objects. Distinct from StoreUnavailableError: the store answered,
// there is simply nothing there.
type NoDataFoundError struct {
	Prefix string
}

func (e *NoDataFoundError) Error() string {
	return fmt.Sprintf("no parquet data found under %q", e.Prefix)
}

// AttachmentAttempt records one attachment strategy and why it failed.
type AttachmentAttempt struct {
	Strategy Strategy
	Reason   string
}

// AttachmentFailedError indicates every attachment strategy was exhausted.
// It carries the individual failure reasons for diagnosability.
type AttachmentFailedError struct {
	View     string
	Attempts []AttachmentAttempt
}

func (e *AttachmentFailedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %s", a.Strategy, a.Reason)
	}
	return fmt.Sprintf("attachment of view %q failed: [%s]", e.View, strings.Join(parts, "; "))
}

// ErrInvalidIdentifier creates an InvalidIdentifierError with a formatted message.
func ErrInvalidIdentifier(format string, args ...interface{}) *InvalidIdentifierError {
	return &InvalidIdentifierError{Message: fmt.Sprintf(format, args...)}
}

// ErrObjectNotFound creates an ObjectNotFoundError for the given key.
func ErrObjectNotFound(key string) *ObjectNotFoundError {
	return &ObjectNotFoundError{Key: key}
}

// ErrStoreUnavailable wraps a transient store failure for the given operation.
func ErrStoreUnavailable(op, key string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Op: op, Key: key, Err: err}
}

// ErrNoDataFound creates a NoDataFoundError for the given prefix.
func ErrNoDataFound(prefix string) *NoDataFoundError {
	return &NoDataFoundError{Prefix: prefix}
}
