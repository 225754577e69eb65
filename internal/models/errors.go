// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// ErrSlugTaken is returned by category create/update when the derived
// slug collides with another category in the currently loaded set.
// Callers treat it as a silent no-op, not a failure: the check scans
// the loaded list only and gives no guarantee under concurrent admins.
var ErrSlugTaken = errors.New("category slug already taken")

// ValidationError reports a required field that is missing or empty.
// It is raised before any store call is made and is surfaced inline.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RepositoryError wraps a failed primary read or write against the
// database. The operation it belongs to is aborted; previously loaded
// data stays intact on the caller's side.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// ReconciliationWarning aggregates failures of best-effort secondary
// steps (counter adjustments, storage cleanup) that ran after the
// primary write already succeeded. The primary operation is still
// reported as successful; the warning travels alongside the result.
type ReconciliationWarning struct {
	Op  string
	Err error // may aggregate several failures via multierr
}

func (e *ReconciliationWarning) Error() string {
	return fmt.Sprintf("reconciliation: %s: %v", e.Op, e.Err)
}

func (e *ReconciliationWarning) Unwrap() error { return e.Err }
