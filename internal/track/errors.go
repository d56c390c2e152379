package track

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass categorizes server-side failures so callers can decide
// between skipping an entity, retrying it with degraded attributes, or
// aborting the whole operation.
type ErrorClass string

const (
	// ClassDuplicate means the server rejected a create because an entity
	// with the same identity already exists under the same parent.
	ClassDuplicate ErrorClass = "duplicate"

	// ClassValidation means the server rejected the payload against the
	// target schema (unknown object type, attribute not permitted, ...).
	ClassValidation ErrorClass = "validation"

	// ClassFault covers every other server-reported failure. These are
	// not recoverable by adjusting the payload.
	ClassFault ErrorClass = "fault"
)

// ServerError is a failure reported by the tracking server in an API
// response body, as opposed to a transport-level error.
type ServerError struct {
	Class     ErrorClass
	Exception string
	Code      int
	Message   string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error %s (%s)", e.Exception, e.Class)
	}
	return fmt.Sprintf("server error %s: %s", e.Exception, e.Message)
}

// classify maps a server exception name onto an error class. The names
// come straight off the wire, so match on substrings to tolerate
// namespaced variants.
func classify(exception string) ErrorClass {
	switch {
	case strings.Contains(exception, "DuplicateEntryError"):
		return ClassDuplicate
	case strings.Contains(exception, "ValidationError"):
		return ClassValidation
	default:
		return ClassFault
	}
}

// IsDuplicate reports whether err is a server duplicate-entry rejection.
func IsDuplicate(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Class == ClassDuplicate
}

// IsValidation reports whether err is a server schema-validation rejection.
func IsValidation(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Class == ClassValidation
}
