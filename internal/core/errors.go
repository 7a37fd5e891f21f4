package core

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is returned by Gateway.Load when the named table does
// not exist. It rejects a batch before any row is processed.
var ErrSourceNotFound = errors.New("source not found")

// ErrBatchInProgress is returned when another batch holds the service and
// did not finish within the configured wait.
var ErrBatchInProgress = errors.New("batch already in progress, please try again later")

// ErrMissingTemplateField is wrapped by RenderError when a required letter
// field is empty.
var ErrMissingTemplateField = errors.New("missing template field")

// ErrShortRow is wrapped by RenderError when a row has fewer cells than the
// schema requires.
var ErrShortRow = errors.New("row has too few fields")

// RenderError is a row-local failure while producing the letter.
type RenderError struct {
	PayrollNumber string
	Err           error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render letter for %q: %v", e.PayrollNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DispatchError is a row-local failure while delivering the message.
// Unreachable hosts, rejected credentials and refused recipients all end up
// here and are treated the same way.
type DispatchError struct {
	To  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %q: %v", e.To, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// PersistenceError is a batch-fatal failure while writing a table back.
type PersistenceError struct {
	Op     string // "save", "append" or "commit"
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
