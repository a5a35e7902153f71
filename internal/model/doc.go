// Package model defines the result structures shared by the pipeline,
// report writers and the history database.
//
// This package contains the following main types:
//   - FunctionReport: brackets and solves for one function
//   - RunReport: every FunctionReport of one solve run
//   - SweepReport: the samples of one accuracy sweep
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. The pipeline fills these structures, and the
// report and database packages only read them.
//
// All models serialize to JSON; non-finite floats (NaN roots of failed
// solves) are encoded as strings by solver.Result.
package model
