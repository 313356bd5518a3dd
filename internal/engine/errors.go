package engine

import (
	"errors"
	"fmt"
)

// ErrInstantiation reports that a simulation could not be created. It is
// fatal: retrying in the same environment is futile.
var ErrInstantiation = errors.New("engine: instantiation failed")

// InstantiationError carries the engine ID and underlying cause of an
// instantiation failure. It matches ErrInstantiation with errors.Is.
type InstantiationError struct {
	Engine string
	Err    error
}

func (e *InstantiationError) Error() string {
	if e.Engine == "" {
		return fmt.Sprintf("engine: instantiate: %v", e.Err)
	}
	return fmt.Sprintf("engine: instantiate %q: %v", e.Engine, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInstantiation.
func (e *InstantiationError) Is(target error) bool {
	return target == ErrInstantiation
}
