// Package solver implements the two iterative root-refinement methods used
// by rootscan: Newton–Raphson and bisection.
//
// Both solvers are pure functions of their inputs. They never panic on bad
// numerics and never terminate the process; every failure is reported as a
// Result whose Status explains what happened, together with a *SolveError
// that wraps one of the package sentinels:
//   - ErrInapplicableMethod: bisection on an interval without a sign change
//   - ErrNonConvergence: the iteration cap was hit before the tolerance
//   - ErrDegenerateDerivative: Newton hit f'(x) == 0
//
// Callers that want a per-iteration trace pass Options.OnStep. An error
// returned from the hook aborts the solve and is propagated, so a failing
// log sink is never silently ignored.
package solver
