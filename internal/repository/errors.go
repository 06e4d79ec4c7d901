// Package repository holds the MySQL data access code.  The sentinel
// errors below are shared by several repositories so that handlers can map
// them to HTTP statuses with errors.Is.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a state transition cannot be applied
// because the row is no longer in the expected state (for example
// activating a subscription that was already cancelled).  Handlers
// translate it into 409.
var ErrConflict = errors.New("conflict")
