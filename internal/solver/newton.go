package solver

import (
	"fmt"
	"math"

	"github.com/nao1215/rootscan/internal/function"
)

// Newton refines x0 towards a root of fn with x_{k+1} = x_k - f(x_k)/f'(x_k),
// stopping when |x_{k+1} - x_k| <= Tolerance or after MaxIterations steps.
//
// The returned Result is always populated. On failure the error is a
// *SolveError wrapping ErrDegenerateDerivative, ErrNonConvergence, or the
// error returned by Options.OnStep.
func Newton(fn function.Function, x0 float64, opts Options) (Result, error) {
	res := Result{Root: math.NaN(), Error: math.NaN()}

	df, ok := fn.(function.Differentiable)
	if !ok {
		res.Status = StatusAborted
		return res, &SolveError{Method: MethodNewton, Function: fn.Label(), Err: ErrNoDerivative}
	}

	opts, err := opts.normalize()
	if err != nil {
		res.Status = StatusAborted
		return res, &SolveError{Method: MethodNewton, Function: fn.Label(), Err: err}
	}

	x := x0
	for k := 1; k <= opts.MaxIterations; k++ {
		d := df.Derivative(x)
		if d == 0 {
			res.Root = math.NaN()
			res.Status = StatusDegenerateDerivative
			return res, &SolveError{
				Method:    MethodNewton,
				Function:  fn.Label(),
				Iteration: res.Iterations,
				Detail:    fmt.Sprintf("f'(%g) = 0", x),
				Err:       ErrDegenerateDerivative,
			}
		}

		next := x - df.Evaluate(x)/d
		diff := math.Abs(next - x)
		x = next
		res.Iterations = int32(k) //nolint:gosec // k <= MaxIterations <= MaxIterationsLimit
		res.Error = diff
		res.Root = x

		if opts.OnStep != nil {
			step := Step{Method: MethodNewton, Iteration: res.Iterations, X: x, Error: diff}
			if err := opts.OnStep(step); err != nil {
				res.Status = StatusAborted
				return res, &SolveError{
					Method:    MethodNewton,
					Function:  fn.Label(),
					Iteration: res.Iterations,
					Err:       err,
				}
			}
		}

		if !finite(x) || !finite(diff) {
			res.Status = StatusNonConvergence
			return res, &SolveError{
				Method:    MethodNewton,
				Function:  fn.Label(),
				Iteration: res.Iterations,
				Detail:    "iterate is not finite",
				Err:       ErrNonConvergence,
			}
		}

		if diff <= opts.Tolerance {
			res.Converged = true
			res.Status = StatusConverged
			return res, nil
		}
	}

	res.Status = StatusNonConvergence
	return res, &SolveError{
		Method:    MethodNewton,
		Function:  fn.Label(),
		Iteration: res.Iterations,
		Detail:    fmt.Sprintf("last step %g > tolerance %g", res.Error, opts.Tolerance),
		Err:       ErrNonConvergence,
	}
}
