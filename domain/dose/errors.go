package dose

import (
	"errors"
	"fmt"
)

// Pipeline failure taxonomy. Every stage surfaces one of these rather than
// emitting a partial or sentinel record; callers dispatch with errors.Is.
var (
	ErrParse            = errors.New("malformed sample identifier")
	ErrMissingReference = errors.New("missing normalization reference")
	ErrUnderDetermined  = errors.New("under-determined fit")
	ErrConvergence      = errors.New("fit did not converge")
	ErrUnknownParameter = errors.New("unknown model parameter")
	ErrUnknownCondition = errors.New("unknown condition")
	ErrUndefinedSEM     = errors.New("undefined standard error of the mean")
)

// Error constructors with context

func NewParseError(sample string) error {
	return fmt.Errorf("%w: %q", ErrParse, sample)
}

func NewMissingReferenceError(c Condition) error {
	return fmt.Errorf("%w for condition %q", ErrMissingReference, c)
}

func NewUnderDeterminedError(c Condition, points, params int) error {
	return fmt.Errorf("%w: condition %q has %d points for %d parameters", ErrUnderDetermined, c, points, params)
}

func NewConvergenceError(iterations int, ssr float64) error {
	return fmt.Errorf("%w after %d iterations (ssr=%g)", ErrConvergence, iterations, ssr)
}

func NewUnknownParameterError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

func NewUnknownConditionError(c Condition) error {
	return fmt.Errorf("%w: %q", ErrUnknownCondition, c)
}

// Error checking helpers

func IsParseError(err error) bool { return errors.Is(err, ErrParse) }

func IsFitError(err error) bool {
	return errors.Is(err, ErrUnderDetermined) || errors.Is(err, ErrConvergence)
}

func IsLookupError(err error) bool {
	return errors.Is(err, ErrUnknownParameter) || errors.Is(err, ErrUnknownCondition)
}
