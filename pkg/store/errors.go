package store

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthConfiguration is returned when the service account secrets are
	// missing or malformed. It is terminal for the current operation.
	ErrAuthConfiguration = errors.New("auth configuration error")
	// ErrUnknownResource is returned when a resource key has no configured URL.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrColumnMismatch is returned when header checking is enabled and the
	// record width differs from the resource header.
	ErrColumnMismatch = errors.New("record does not match resource columns")
)

// RemoteWriteError wraps any failure of an append.
type RemoteWriteError struct {
	Resource string
	Err      error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("append to %s: %v", e.Resource, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// RemoteReadError wraps any failure of a read.
type RemoteReadError struct {
	Resource string
	Err      error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Resource, e.Err)
}

func (e *RemoteReadError) Unwrap() error {
	return e.Err
}
