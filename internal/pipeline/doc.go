// Package pipeline runs the root-finding steps for each function.
//
// A Pipeline executes Steps in order against one function, accumulating
// results in a model.FunctionReport. The default pipeline scans for
// brackets, then refines every bracket with Newton's method and with
// bisection.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows steps to be enabled or disabled per run (e.g. --method)
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// Solver failures (inapplicable method, non-convergence, zero derivative)
// are recorded in the report and never stop a pipeline. Only sink errors
// and cancellation do.
//
// BatchProcessor runs one pipeline per function with errgroup and a
// concurrency limit. The trace recorder serializes writes, so concurrent
// pipelines never corrupt the log.
package pipeline
