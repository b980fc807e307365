package cache

import "fmt"

// StorageError reports a failure while storing or retrieving a cache entry
// (directory creation, stat, read, write, or encoding a value for storage).
// It wraps the underlying error for errors.Is / errors.As inspection.
type StorageError struct {
	Location string
	Op       string // "mkdir", "stat", "read", "write" or "encode"
	Err      error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("cache storage %s %q: %v", e.Op, e.Location, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error { return e.Err }

// DecodeError reports a corrupt cache entry or one written by an incompatible
// codec. It wraps the codec's error.
type DecodeError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("cache decode %q: %v", e.Location, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }
