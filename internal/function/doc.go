// Package function defines the fixed set of real functions whose roots
// rootscan searches for, together with their analytic derivatives.
//
// The set is closed: every function is identified by an ID and resolved
// through Lookup. Callers depend only on the capability interfaces:
//   - Function: a labelled mapping float64 -> float64
//   - Differentiable: a Function that also exposes its derivative
//   - Singular: a Function with known discontinuity points
//
// Design decision: We dispatch through small interfaces instead of bare
// func values so that solvers can ask for exactly the capability they need
// (bisection needs only Evaluate, Newton needs Derivative, the bracket
// scanner needs Singularities) without a growing list of parameters.
package function
