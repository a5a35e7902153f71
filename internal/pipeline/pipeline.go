package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
)

// Step is one stage of the per-function pipeline. Steps run in order and
// share the FunctionReport: the bracket step fills Intervals, the solve
// steps read them and append Solves.
type Step interface {
	// Do executes the step for fn. Failures of a single solve are recorded
	// in the report; a returned error means the step itself failed.
	Do(ctx context.Context, fn function.Function, report *model.FunctionReport) error

	// Name identifies the step in logs and in report.PerformedSteps.
	Name() string
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	name string
	do   func(ctx context.Context, fn function.Function, report *model.FunctionReport) error
}

// NewStepFunc creates a named step from do.
func NewStepFunc(name string, do func(ctx context.Context, fn function.Function, report *model.FunctionReport) error) StepFunc {
	return StepFunc{name: name, do: do}
}

// Do calls the wrapped function.
func (s StepFunc) Do(ctx context.Context, fn function.Function, report *model.FunctionReport) error {
	return s.do(ctx, fn, report)
}

// Name returns the step name.
func (s StepFunc) Name() string {
	return s.name
}

// Pipeline runs an ordered list of steps over one function.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails. The first
// error is still recorded in the report and returned.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step for fn, filling report.
//
// The context is checked between steps only: a running step is never
// interrupted, since every solve is bounded by its iteration cap. On
// cancellation report.TimedOut is set and the context error returned.
func (p *Pipeline) Execute(ctx context.Context, fn function.Function, report *model.FunctionReport) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"function", report.Function,
				"reason", err,
			)
			report.TimedOut = true
			return err
		}

		start := time.Now()
		err := step.Do(ctx, fn, report)
		p.logger.Debug("step finished",
			"step", step.Name(),
			"function", report.Function,
			"elapsed", time.Since(start),
			"solves", len(report.Solves),
		)

		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"function", report.Function,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
				report.Error = err
				report.ErrorMessage = err.Error()
			}
			if !p.continueOnError {
				return err
			}
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}
	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
