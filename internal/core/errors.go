package core

import (
	"errors"
	"fmt"
)

// Domain errors for the time-advance pipeline.
var (
	// ErrInvalidTimestep indicates a non-positive dt passed to the integrator.
	ErrInvalidTimestep = errors.New("core: timestep must be positive")

	// ErrForcesNotReady indicates acceleration or energy derivative was not
	// populated (or not finite) for some particle before integration.
	ErrForcesNotReady = errors.New("core: force evaluation not ready")

	// ErrInvalidGamma indicates an adiabatic index outside (1, inf).
	ErrInvalidGamma = errors.New("core: adiabatic index must exceed 1")

	// ErrInvalidCoefficient indicates a CFL safety coefficient outside (0, 1].
	ErrInvalidCoefficient = errors.New("core: CFL coefficient must be in (0, 1]")

	// ErrInvalidState indicates a particle field went NaN or Inf.
	ErrInvalidState = errors.New("core: invalid state (NaN or Inf detected)")
)

// StepError wraps an error with the step and time at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
