package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a single-row read matches no row. Callers must
// treat it as an empty result, not a service failure.
var ErrNotFound = errors.New("no matching row")

// codeNoSingleRow is the table service's code for "single object requested,
// zero (or multiple) rows returned".
const codeNoSingleRow = "PGRST116"

// Error is a failure reported by the remote table service. It always carries
// a human-readable message.
type Error struct {
	Status  int    // HTTP status code
	Code    string // service-specific error code, may be empty
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote service error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote service error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
