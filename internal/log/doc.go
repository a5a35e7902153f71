// Package log builds the slog loggers used by rootscan.
//
// Solver results routinely carry NaN (an inapplicable bisection, a
// degenerate Newton step) and may carry infinities. slog's JSON handler
// cannot encode those, so every logger is wrapped in a FiniteHandler that
// rewrites non-finite float attributes as the strings "NaN", "+Inf" and
// "-Inf" before they reach the underlying handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, log.FormatJSON)
//	slog.SetDefault(logger)
//
//	logger.Warn("solve failed", "root", math.NaN()) // "root":"NaN"
package log
