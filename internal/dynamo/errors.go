package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepBudget indicates the solver used its step budget before reaching the next output time.
	ErrStepBudget = errors.New("dynamo: step budget exhausted")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrJacobianUnsupported is returned when a caller supplies its own Jacobian.
	ErrJacobianUnsupported = errors.New("dynamo: user-supplied jacobian is not supported")

	// ErrZeroNormalization indicates the integrated photon population is zero.
	ErrZeroNormalization = errors.New("dynamo: integrated photon population is zero")

	// ErrNoTrajectory indicates a spectra run was requested before any dynamics run completed.
	ErrNoTrajectory = errors.New("dynamo: no completed trajectory")

	// ErrBusy indicates a run of the same kind is still in flight.
	ErrBusy = errors.New("dynamo: run already in progress")
)

// ConfigurationError reports missing, invalid or inconsistent parameters.
type ConfigurationError struct {
	Field   string
	Reason  string
	Wrapped error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Wrapped
}

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IntegrationError wraps a solver failure with the last time it reached.
type IntegrationError struct {
	Time    float64
	Step    int
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at t=%.6g after %d steps: %v", e.Time, e.Step, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}

// SpectraError reports a degenerate spectra computation.
type SpectraError struct {
	Reason  string
	Wrapped error
}

func (e *SpectraError) Error() string {
	return "spectra: " + e.Reason
}

func (e *SpectraError) Unwrap() error {
	return e.Wrapped
}

// ResourceError reports an external file that could not be read or parsed.
type ResourceError struct {
	Path    string
	Wrapped error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Path, e.Wrapped)
}

func (e *ResourceError) Unwrap() error {
	return e.Wrapped
}
