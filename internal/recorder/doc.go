// Package recorder implements the append-only error logs that rootscan
// writes convergence data to.
//
// Every record is one line:
//
//	<function_label>:<method_label>:<error with 15 fractional digits>
//
// Two logical streams use this format: the iteration trace (one record per
// solver step) and the accuracy sweep (one record per completed solve).
// Both are truncated when opened, so each run starts from an empty log.
//
// Recorders are safe for concurrent use; each record is written under a
// mutex so lines from parallel solves never interleave.
package recorder
