// Package hserr defines the error taxonomy shared by the data model,
// the factories and the controller boundary.
//
// Every failure in the SDK wraps exactly one of these sentinels, so callers
// classify errors with errors.Is:
//
//	if errors.Is(err, hserr.ErrOverlap) {
//	    // a status entry already covers that value
//	}
package hserr

import "errors"

var (
	// ErrInvalidArgument is returned when an argument is malformed (blank
	// name, nil extra data, min above max, ...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange is returned when a numeric argument falls outside its
	// allowed bounds.
	ErrOutOfRange = errors.New("out of range")

	// ErrOverlap is returned when a status entry collides with an entry
	// already present in a range-indexed collection.
	ErrOverlap = errors.New("duplicate or overlapping entry")

	// ErrNotFound is returned when no entry or entity matches a lookup.
	ErrNotFound = errors.New("not found")

	// ErrRelationshipConflict is returned when a relationship change would
	// orphan the entity's current associations.
	ErrRelationshipConflict = errors.New("relationship conflict")

	// ErrInvalidOperation is returned when an operation is not valid in the
	// entity's current state.
	ErrInvalidOperation = errors.New("invalid operation")
)
