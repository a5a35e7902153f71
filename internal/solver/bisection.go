package solver

import (
	"fmt"
	"math"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
)

// Bisection halves iv until its width is at most Tolerance or
// MaxIterations steps have run. It requires f(a)·f(b) < 0; otherwise it
// returns immediately with StatusInapplicable and a NaN root.
//
// Each step evaluates the midpoint c and keeps the half on which the sign
// changes, so the root stays bracketed and the width after step k is
// (b-a)/2^k. A midpoint with f(c) == 0 ends the solve as converged.
func Bisection(fn function.Function, iv bracket.Interval, opts Options) (Result, error) {
	res := Result{Root: math.NaN(), Error: math.NaN()}

	opts, err := opts.normalize()
	if err != nil {
		res.Status = StatusAborted
		return res, &SolveError{Method: MethodBisection, Function: fn.Label(), Err: err}
	}

	a, b := iv.A, iv.B
	if !iv.Valid() {
		res.Status = StatusInapplicable
		return res, &SolveError{
			Method:   MethodBisection,
			Function: fn.Label(),
			Detail:   fmt.Sprintf("interval %v is empty or not finite", iv),
			Err:      ErrInapplicableMethod,
		}
	}

	fa, fb := fn.Evaluate(a), fn.Evaluate(b)
	if !(fa*fb < 0) {
		res.Status = StatusInapplicable
		return res, &SolveError{
			Method:   MethodBisection,
			Function: fn.Label(),
			Detail:   fmt.Sprintf("f(%g) = %g, f(%g) = %g", a, fa, b, fb),
			Err:      ErrInapplicableMethod,
		}
	}

	for k := 1; k <= opts.MaxIterations; k++ {
		c := (a + b) / 2
		fc := fn.Evaluate(c)

		switch {
		case fc == 0:
			a, b = c, c
		case fa*fc < 0:
			b = c
		default:
			a, fa = c, fc
		}

		width := math.Abs(b - a)
		res.Iterations = int32(k) //nolint:gosec // k <= MaxIterations <= MaxIterationsLimit
		res.Error = width
		res.Root = c

		if opts.OnStep != nil {
			step := Step{Method: MethodBisection, Iteration: res.Iterations, X: c, Error: width}
			if err := opts.OnStep(step); err != nil {
				res.Status = StatusAborted
				return res, &SolveError{
					Method:    MethodBisection,
					Function:  fn.Label(),
					Iteration: res.Iterations,
					Err:       err,
				}
			}
		}

		if width <= opts.Tolerance {
			res.Converged = true
			res.Status = StatusConverged
			return res, nil
		}
	}

	res.Status = StatusNonConvergence
	return res, &SolveError{
		Method:    MethodBisection,
		Function:  fn.Label(),
		Iteration: res.Iterations,
		Detail:    fmt.Sprintf("width %g > tolerance %g", res.Error, opts.Tolerance),
		Err:       ErrNonConvergence,
	}
}
