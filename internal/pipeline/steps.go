package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/recorder"
	"github.com/nao1215/rootscan/internal/solver"
)

// BracketStep fills report.Intervals with the sign-change intervals of the
// function.
//
// Design decision: Exceeding the scanner capacity is not fatal. The step
// keeps the brackets that fit, flags the report and lets the solve steps
// run on them.
type BracketStep struct {
	scanner *bracket.Scanner
	logger  *slog.Logger
}

// NewBracketStep creates a bracket scanning step.
func NewBracketStep(scanner *bracket.Scanner, logger *slog.Logger) *BracketStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketStep{scanner: scanner, logger: logger}
}

// Name returns the step name.
func (s *BracketStep) Name() string {
	return "brackets"
}

// Do executes the bracket scan.
func (s *BracketStep) Do(_ context.Context, fn function.Function, report *model.FunctionReport) error {
	intervals, err := s.scanner.Scan(fn)
	switch {
	case errors.Is(err, bracket.ErrCapacityExceeded):
		s.logger.Warn("bracket capacity exceeded",
			"function", report.Function,
			"capacity", s.scanner.Capacity(),
		)
		report.CapacityExceeded = true
	case err != nil:
		return err
	}

	report.Intervals = intervals
	if len(intervals) == 0 {
		lo, hi := s.scanner.Domain()
		s.logger.Warn("no sign change found",
			"function", report.Function,
			"lo", lo,
			"hi", hi,
			"step", s.scanner.Step(),
		)
	}
	s.logger.Debug("brackets found",
		"function", report.Function,
		"count", len(intervals),
	)
	return nil
}

// SolveStep refines every bracket of the report with one method.
type SolveStep struct {
	method    solver.Method
	tolerance float64
	maxIter   int
	trace     recorder.Recorder
	logger    *slog.Logger
}

// SolveStepOption configures a SolveStep.
type SolveStepOption func(*SolveStep)

// WithTolerance sets the convergence tolerance.
func WithTolerance(eps float64) SolveStepOption {
	return func(s *SolveStep) {
		s.tolerance = eps
	}
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) SolveStepOption {
	return func(s *SolveStep) {
		s.maxIter = n
	}
}

// WithTrace records every iteration's error to rec.
func WithTrace(rec recorder.Recorder) SolveStepOption {
	return func(s *SolveStep) {
		s.trace = rec
	}
}

// WithStepLogger sets the logger of the step.
func WithStepLogger(logger *slog.Logger) SolveStepOption {
	return func(s *SolveStep) {
		s.logger = logger
	}
}

// NewSolveStep creates a step that runs method on every bracket.
func NewSolveStep(method solver.Method, opts ...SolveStepOption) *SolveStep {
	s := &SolveStep{
		method:    method,
		tolerance: solver.DefaultTolerance,
		maxIter:   solver.DefaultMaxIterations,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SolveStep) Name() string {
	switch s.method {
	case solver.MethodNewton:
		return "newton"
	case solver.MethodBisection:
		return "bisection"
	default:
		return "solve"
	}
}

// Do solves every bracket in report.Intervals. Newton is seeded at the
// left endpoint of each bracket.
func (s *SolveStep) Do(_ context.Context, fn function.Function, report *model.FunctionReport) error {
	for i, iv := range report.Intervals {
		label := report.RootLabel(i)
		opts := solver.Options{
			Tolerance:     s.tolerance,
			MaxIterations: s.maxIter,
		}
		if s.trace != nil {
			opts.OnStep = recorder.StepHook(s.trace, label)
		}

		solve := model.Solve{Label: label, Method: s.method, Interval: iv}
		var (
			res solver.Result
			err error
		)
		switch s.method {
		case solver.MethodNewton:
			solve.Seed = iv.A
			res, err = solver.Newton(fn, iv.A, opts)
		default:
			res, err = solver.Bisection(fn, iv, opts)
		}
		solve.Result = res

		if err != nil {
			solve.Error = err.Error()
			report.AddSolve(solve)
			if res.Status == solver.StatusAborted {
				return err
			}
			s.logger.Warn("solve failed",
				"label", label,
				"method", s.method.String(),
				"status", res.Status.String(),
				"iterations", res.Iterations,
				"error", err,
			)
			continue
		}

		report.AddSolve(solve)
		s.logger.Debug("solve converged",
			"label", label,
			"method", s.method.String(),
			"root", res.Root,
			"iterations", res.Iterations,
		)
	}
	return nil
}

// Config holds the parameters of DefaultPipeline.
type Config struct {
	// Scanner locates the brackets.
	Scanner *bracket.Scanner

	// Methods lists the solvers to run, in order. Empty means all.
	Methods []solver.Method

	// Tolerance is the convergence tolerance.
	Tolerance float64

	// MaxIterations is the iteration cap.
	MaxIterations int

	// Trace receives per-iteration records; nil disables tracing.
	Trace recorder.Recorder

	// Logger is used by the pipeline and its steps.
	Logger *slog.Logger
}

// DefaultPipeline creates the standard pipeline: bracket scan followed by
// one solve step per method.
func DefaultPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger))
	p.AddStep(NewBracketStep(cfg.Scanner, logger))

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = solver.Methods()
	}
	for _, m := range methods {
		opts := []SolveStepOption{
			WithTolerance(cfg.Tolerance),
			WithMaxIterations(cfg.MaxIterations),
			WithStepLogger(logger),
		}
		if cfg.Trace != nil {
			opts = append(opts, WithTrace(cfg.Trace))
		}
		p.AddStep(NewSolveStep(m, opts...))
	}
	return p
}
