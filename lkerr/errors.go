// Package lkerr defines the error kinds shared across lakota's layers.
// Each kind is a distinct type so callers can discriminate with
// errors.As instead of string matching, and every kind carries enough
// context to be useful on its own in a log line.
package lkerr

import "fmt"

// NotFound reports that a key or digest is absent from a backend.
type NotFound struct {
	Key string
}

func (e *NotFound) Error() string { return fmt.Sprintf("not found: %s", e.Key) }

// IntegrityError reports a digest mismatch, a decompression failure or
// a malformed changelog filename — anything that indicates stored
// bytes no longer match what their name promises.
type IntegrityError struct {
	Context string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity error (%s): %v", e.Context, e.Err)
	}
	return fmt.Sprintf("integrity error: %s", e.Context)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// SchemaError reports a frame that violates its schema: a missing
// column, a dtype mismatch, a non-monotone or null key.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("schema error: %s", e.Reason) }

// BackendError wraps a transport/permission failure from a pod
// backend. Callers (pull/push) may retry it with bounded attempts.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("backend error during %s: %v", e.Op, e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

// ConcurrencyNotice is non-fatal: it reports that a collection now has
// forked heads after a write or pull. The caller may call Merge.
type ConcurrencyNotice struct {
	Collection string
	HeadCount  int
}

func (e *ConcurrencyNotice) Error() string {
	return fmt.Sprintf("collection %q has %d forked heads, consider merge", e.Collection, e.HeadCount)
}
