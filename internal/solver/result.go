package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Default solver parameters.
const (
	// DefaultTolerance is the convergence tolerance. 1e-15 is close to the
	// spacing of float64 values near the roots of interest.
	DefaultTolerance = 1e-15

	// DefaultMaxIterations is the hard cap on solver steps.
	DefaultMaxIterations = 1000

	// MaxIterationsLimit is the largest accepted iteration cap; iteration
	// counts are reported as int32.
	MaxIterationsLimit = math.MaxInt32
)

// Method identifies a root-finding method.
type Method int

const (
	// MethodNewton is the Newton–Raphson method.
	MethodNewton Method = iota + 1

	// MethodBisection is the interval-halving method.
	MethodBisection
)

// String returns the method label used in error records.
func (m Method) String() string {
	switch m {
	case MethodNewton:
		return "Newton"
	case MethodBisection:
		return "Bisection"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the method as its label.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a method label.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMethod resolves a method label ("Newton", "bisection", ...).
func ParseMethod(label string) (Method, error) {
	switch label {
	case "Newton", "newton":
		return MethodNewton, nil
	case "Bisection", "bisection":
		return MethodBisection, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownMethod, label)
	}
}

// Methods returns every method in record order.
func Methods() []Method {
	return []Method{MethodNewton, MethodBisection}
}

// Status describes how a solve ended.
type Status int

const (
	// StatusConverged means the tolerance was met within the cap.
	StatusConverged Status = iota

	// StatusNonConvergence means the cap was exhausted first.
	StatusNonConvergence

	// StatusDegenerateDerivative means Newton hit a zero derivative.
	StatusDegenerateDerivative

	// StatusInapplicable means bisection was given an interval without a
	// sign change.
	StatusInapplicable

	// StatusAborted means an OnStep hook returned an error.
	StatusAborted
)

// String returns a short description of the status.
func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusNonConvergence:
		return "non-convergence"
	case StatusDegenerateDerivative:
		return "degenerate derivative"
	case StatusInapplicable:
		return "inapplicable"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for this status, or nil when converged.
func (s Status) Err() error {
	switch s {
	case StatusConverged:
		return nil
	case StatusNonConvergence:
		return ErrNonConvergence
	case StatusDegenerateDerivative:
		return ErrDegenerateDerivative
	case StatusInapplicable:
		return ErrInapplicableMethod
	case StatusAborted:
		return errors.New("solve aborted")
	default:
		return errors.New("unknown solve status")
	}
}

// MarshalText encodes the status as its String form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	st, ok := ParseStatus(string(text))
	if !ok {
		return fmt.Errorf("unknown solve status %q", text)
	}
	*s = st
	return nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusConverged, StatusNonConvergence, StatusDegenerateDerivative, StatusInapplicable, StatusAborted} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Result is the outcome of one solver invocation.
type Result struct {
	// Root is the final approximation. It is NaN when the method was
	// inapplicable or the derivative degenerated; after non-convergence it
	// holds the last (unreliable) approximation.
	Root float64 `json:"root"`

	// Iterations is the number of completed steps.
	Iterations int32 `json:"iterations"`

	// Converged is true only when the tolerance was met.
	Converged bool `json:"converged"`

	// Error is the error estimate at loop exit: |x_{k+1} - x_k| for Newton,
	// the bracket width for bisection. NaN when no step completed.
	Error float64 `json:"error"`

	// Status explains how the solve ended.
	Status Status `json:"status"`
}

// jsonFloat encodes non-finite values as strings, which encoding/json
// rejects as numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if finite(v) {
		return json.Marshal(v)
	}
	return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = jsonFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type resultJSON struct {
	Root       jsonFloat `json:"root"`
	Iterations int32     `json:"iterations"`
	Converged  bool      `json:"converged"`
	Error      jsonFloat `json:"error"`
	Status     Status    `json:"status"`
}

// MarshalJSON encodes the result, writing NaN and infinities as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Root:       jsonFloat(r.Root),
		Iterations: r.Iterations,
		Converged:  r.Converged,
		Error:      jsonFloat(r.Error),
		Status:     r.Status,
	})
}

// UnmarshalJSON decodes a result produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var aux resultJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Result{
		Root:       float64(aux.Root),
		Iterations: aux.Iterations,
		Converged:  aux.Converged,
		Error:      float64(aux.Error),
		Status:     aux.Status,
	}
	return nil
}

// Step is one iteration reported to an OnStep hook.
type Step struct {
	// Method is the solver emitting the step.
	Method Method

	// Iteration is the 1-based step number.
	Iteration int32

	// X is the new iterate (Newton) or the midpoint (bisection).
	X float64

	// Error is the step's error estimate.
	Error float64
}

// Options tunes a solve.
type Options struct {
	// Tolerance is the convergence threshold ε. Zero means
	// DefaultTolerance.
	Tolerance float64

	// MaxIterations is the iteration cap N. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// OnStep, when set, is called after every iteration. Returning an
	// error aborts the solve.
	OnStep func(Step) error
}

// normalize fills defaults and validates the options.
func (o Options) normalize() (Options, error) {
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if math.IsNaN(o.Tolerance) || math.IsInf(o.Tolerance, 0) || o.Tolerance < 0 {
		return o, ErrInvalidTolerance
	}
	if o.MaxIterations < 0 || o.MaxIterations > MaxIterationsLimit {
		return o, ErrInvalidMaxIterations
	}
	return o, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
