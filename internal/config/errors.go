package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while still getting a human-readable message.
var (
	// ErrInvalidDomain is returned when the scan domain is empty or not finite.
	ErrInvalidDomain = errors.New("invalid domain: lo must be less than hi")

	// ErrInvalidStep is returned when the scan step is not positive or
	// splits the domain into more than bracket.MaxSegments samples.
	ErrInvalidStep = errors.New("invalid step: must be positive and at least (hi-lo)/2147483647")

	// ErrInvalidCapacity is returned when the bracket capacity is not positive.
	ErrInvalidCapacity = errors.New("invalid capacity: must be positive")

	// ErrInvalidTolerance is returned when the tolerance is not positive.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidMaxIterations is returned when the iteration cap is not
	// in [1, solver.MaxIterationsLimit].
	ErrInvalidMaxIterations = errors.New("invalid max iterations: must be between 1 and 2147483647")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidSweepRange is returned when the sweep exponents are not
	// negative, are in the wrong order, or go below
	// model.MinToleranceExponent.
	ErrInvalidSweepRange = errors.New("invalid sweep range: need 0 > from >= to >= -323")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidLocale is returned when the locale is not a BCP 47 tag.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")
)
