package solver

import (
	"errors"
	"fmt"
)

// Solver failure conditions. These are recoverable: the caller receives a
// Result with a matching Status and may retry with other inputs.
var (
	// ErrInapplicableMethod is returned by Bisection when f(a)·f(b) >= 0.
	// No iteration is attempted and the root is NaN.
	ErrInapplicableMethod = errors.New("method inapplicable: f(a) and f(b) have the same sign")

	// ErrNonConvergence is returned when the iteration cap is exhausted
	// before the tolerance is met. The result still carries the last
	// approximation, which must be treated as unreliable.
	ErrNonConvergence = errors.New("did not converge within iteration cap")

	// ErrDegenerateDerivative is returned by Newton when the derivative is
	// exactly zero at an iterate. The root is NaN; retrying from another
	// seed may succeed.
	ErrDegenerateDerivative = errors.New("derivative is zero")

	// ErrNoDerivative is returned by Newton when the function does not
	// expose an analytic derivative.
	ErrNoDerivative = errors.New("function has no derivative")

	// ErrInvalidTolerance is returned when the tolerance is not a positive
	// finite number.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidMaxIterations is returned when the iteration cap is
	// negative or above MaxIterationsLimit.
	ErrInvalidMaxIterations = errors.New("invalid iteration cap: must be between 1 and 2147483647")

	// ErrUnknownMethod is returned for a method label or value that names
	// no solver.
	ErrUnknownMethod = errors.New("unknown method")
)

// SolveError describes a failed solve. It wraps one of the sentinel errors
// above (or an error returned by an OnStep hook) so that errors.Is works.
type SolveError struct {
	// Method is the solver that failed.
	Method Method

	// Function is the label of the function being solved.
	Function string

	// Iteration is the number of completed iterations at the point of
	// failure.
	Iteration int32

	// Detail adds context to the wrapped error; may be empty.
	Detail string

	// Err is the underlying cause.
	Err error
}

func (e *SolveError) Error() string {
	msg := fmt.Sprintf("%s on %s: %v", e.Method, e.Function, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *SolveError) Unwrap() error {
	return e.Err
}
