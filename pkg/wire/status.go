package wire

import (
	"errors"
	"fmt"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusInvalidArgument indicates a malformed request or value.
	StatusInvalidArgument Status = 1

	// StatusOutOfRange indicates a value outside its permitted range.
	StatusOutOfRange Status = 2

	// StatusOverlap indicates a duplicate or overlapping status entry.
	StatusOverlap Status = 3

	// StatusNotFound indicates the referenced entity doesn't exist.
	StatusNotFound Status = 4

	// StatusRelationshipConflict indicates a relationship change blocked by
	// existing associations.
	StatusRelationshipConflict Status = 5

	// StatusInvalidOperation indicates the request is not allowed in the
	// entity's current state.
	StatusInvalidOperation Status = 6

	// StatusInternal indicates a controller-side failure.
	StatusInternal Status = 7
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusOutOfRange:
		return "OUT_OF_RANGE"
	case StatusOverlap:
		return "OVERLAP"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusRelationshipConflict:
		return "RELATIONSHIP_CONFLICT"
	case StatusInvalidOperation:
		return "INVALID_OPERATION"
	case StatusInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}

var statusErrors = []struct {
	status Status
	err    error
}{
	{StatusInvalidArgument, hserr.ErrInvalidArgument},
	{StatusOutOfRange, hserr.ErrOutOfRange},
	{StatusOverlap, hserr.ErrOverlap},
	{StatusNotFound, hserr.ErrNotFound},
	{StatusRelationshipConflict, hserr.ErrRelationshipConflict},
	{StatusInvalidOperation, hserr.ErrInvalidOperation},
}

// StatusFromError maps err onto the status taxonomy. Errors outside the
// taxonomy map to StatusInternal; nil maps to StatusSuccess.
func StatusFromError(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return StatusInternal
}

// ErrController wraps failures reported with StatusInternal or an unknown
// status.
var ErrController = errors.New("controller error")

// Err returns the error for s with message attached, or nil on success.
// The result matches the corresponding hserr sentinel with errors.Is.
func (s Status) Err(message string) error {
	if s.IsSuccess() {
		return nil
	}
	base := ErrController
	for _, se := range statusErrors {
		if se.status == s {
			base = se.err
			break
		}
	}
	if message == "" {
		return fmt.Errorf("%w (%s)", base, s)
	}
	return fmt.Errorf("%w: %s", base, message)
}
