package specfit

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the error kinds enumerated in the specification.
var (
	// ErrUnknownTheory is returned when a theory name is not in the registry.
	ErrUnknownTheory = errors.New("specfit: unknown theory")
	// ErrUnknownBackground is returned when a background name is not in the registry.
	ErrUnknownBackground = errors.New("specfit: unknown background")
	// ErrShapeMismatch is returned when x/y/sigma lengths disagree, or a
	// constraint references an out-of-range parameter index.
	ErrShapeMismatch = errors.New("specfit: shape mismatch")
	// ErrSolverFailure is returned when the external solver fails to
	// converge or produces a non-finite result.
	ErrSolverFailure = errors.New("specfit: solver failure")
	// ErrInvalidConfiguration is returned for configuration values whose
	// type cannot be reconciled with the expected semantic type.
	ErrInvalidConfiguration = errors.New("specfit: invalid configuration")
)

// Wrapper annotates err with a message while preserving it for errors.Is/As.
func Wrapper(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapperf is the formatted variant of Wrapper.
func Wrapperf(err error, format string, args ...any) error {
	return errors.Wrap(err, fmt.Sprintf(format, args...))
}
