// Package sweep runs the accuracy sweep: every root of every function is
// solved by every method for a descending sequence of tolerances, and the
// final error of each solve is appended to the accuracy log.
//
// The log order is fixed (tolerance, method, function, bracket) so that two
// sweeps with identical inputs produce byte-identical logs. The SHA3-256
// digest of the emitted bytes is returned with the report and stored in the
// run history, which makes regressions in the solvers visible as a digest
// change.
package sweep
