package editor

import "errors"

var (
	// ErrNotReady is returned for edits or saves while the entity is still
	// loading or failed to load.
	ErrNotReady = errors.New("editor not ready")
	// ErrSaveInFlight is returned when a save is requested for a section
	// whose previous save has not completed.
	ErrSaveInFlight = errors.New("save already in progress")
	// ErrUnknownSection is returned for section ids that are not registered
	// or not visible for the entity's subtype.
	ErrUnknownSection = errors.New("unknown section")
	// ErrInvalidPayload is returned when a draft cannot be represented as JSON.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrSessionNotFound is returned by the Manager for unknown or expired
	// sessions, and for sessions owned by another user.
	ErrSessionNotFound = errors.New("editor session not found")
	// ErrNotOwner is returned when the current user does not own the entity.
	ErrNotOwner = errors.New("service belongs to another practitioner")
	// ErrLayoutMismatch is returned when an accordion action is sent to a
	// split-view session or vice versa.
	ErrLayoutMismatch = errors.New("action not supported by layout")
	// ErrDuplicateSection is returned when a registry names a section twice.
	ErrDuplicateSection = errors.New("duplicate section id")
)
