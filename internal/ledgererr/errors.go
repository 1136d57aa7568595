// Package ledgererr defines the error categories shared by the ledger
// packages. Concrete errors live next to the code that raises them and
// unwrap to one of the sentinels here, so callers classify with errors.Is
// and inspect details with errors.As.
package ledgererr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before anything was persisted.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unknown account or entry.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity marks a ledger that fails its own consistency checks.
	ErrIntegrity = errors.New("integrity error")
)

// NotFoundError reports an unknown entity.
type NotFoundError struct {
	Entity string // "account", "entry"
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IntegrityError reports a report whose self-check failed.
type IntegrityError struct {
	Report string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Report, e.Detail)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "RESOURCE_NOT_FOUND"
	case errors.Is(err, ErrIntegrity):
		return "INTEGRITY_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
