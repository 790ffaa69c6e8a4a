package xrec

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by [Update] and [Reload] when no stored row
// matches the record's primary key. It marks "the target is gone", which
// callers usually handle differently from a hard engine failure.
var ErrRecordNotFound = errors.New("xrec: record not found")

// ErrMissingPrimaryKey is returned when an operation needs the record's
// identity but the record declares no primary key columns, or a key column
// is absent or NULL in its persisted values.
var ErrMissingPrimaryKey = errors.New("xrec: missing primary key value")

// ConstraintError wraps the engine's rejection of an INSERT or UPDATE that
// violates a uniqueness, foreign-key, NOT NULL or CHECK constraint. The
// underlying sqlite3 error is available through Unwrap / errors.As.
type ConstraintError struct {
	Table string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("xrec: constraint violated on %q: %v", e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }
