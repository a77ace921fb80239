// Package domain defines the core entities and the error taxonomy shared
// by every layer.
package domain

import "errors"

// The four failure kinds every operation reports. Callers match them with
// errors.Is; stores translate driver errors into these before returning.
var (
	// ErrNotFound is returned when a deck or card id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a deck or user name collides with
	// an existing one. The caller may retry with a different name.
	ErrDuplicateName = errors.New("name already exists")

	// ErrValidation is returned for malformed input: a blank deck name, an
	// out-of-range review quality, a structurally invalid import payload.
	ErrValidation = errors.New("validation failed")

	// ErrStorageUnavailable is returned when the underlying storage cannot
	// be opened or written. The operation is rolled back; the process may
	// retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateName reports whether err is a name collision.
func IsDuplicateName(err error) bool { return errors.Is(err, ErrDuplicateName) }
