package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/recorder"
	"github.com/nao1215/rootscan/internal/solver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScanner(t *testing.T, opts ...bracket.Option) *bracket.Scanner {
	t.Helper()
	s, err := bracket.NewScanner(opts...)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSolveStepName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method solver.Method
		want   string
	}{
		{solver.MethodNewton, "newton"},
		{solver.MethodBisection, "bisection"},
		{solver.Method(0), "solve"},
	}
	for _, tt := range tests {
		if got := NewSolveStep(tt.method).Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewSolveStepOptions(t *testing.T) {
	t.Parallel()

	rec := recorder.Nop{}
	s := NewSolveStep(solver.MethodNewton,
		WithTolerance(1e-6),
		WithMaxIterations(50),
		WithTrace(rec),
		WithStepLogger(quietLogger()),
	)
	if s.tolerance != 1e-6 || s.maxIter != 50 {
		t.Errorf("options not applied: %+v", s)
	}
	if s.trace == nil {
		t.Error("trace not set")
	}
}

func TestBracketStepDo(t *testing.T) {
	t.Parallel()

	t.Run("finds both roots of f3", func(t *testing.T) {
		t.Parallel()

		fn, _ := function.Lookup(function.F3)
		report := model.NewFunctionReport(fn)
		step := NewBracketStep(newScanner(t), quietLogger())
		if err := step.Do(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Intervals) != 2 {
			t.Fatalf("expected 2 brackets, got %v", report.Intervals)
		}
		if report.RootLabel(1) != "f3_2" {
			t.Errorf("unexpected label %q", report.RootLabel(1))
		}
	})

	t.Run("capacity overflow is recorded", func(t *testing.T) {
		t.Parallel()

		fn := function.Func("sin", math.Sin, math.Cos)
		report := model.NewFunctionReport(fn)
		step := NewBracketStep(newScanner(t, bracket.WithCapacity(5)), quietLogger())
		if err := step.Do(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.CapacityExceeded || len(report.Intervals) != 5 {
			t.Errorf("expected 5 brackets and overflow flag, got %d %v", len(report.Intervals), report.CapacityExceeded)
		}
	})

	t.Run("no root is not an error", func(t *testing.T) {
		t.Parallel()

		fn := function.Func("exp", math.Exp, math.Exp)
		report := model.NewFunctionReport(fn)
		step := NewBracketStep(newScanner(t), quietLogger())
		if err := step.Do(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Intervals) != 0 {
			t.Errorf("expected no brackets, got %v", report.Intervals)
		}
	})
}

func TestSolveStepDo(t *testing.T) {
	t.Parallel()

	t.Run("newton and bisection agree on f2", func(t *testing.T) {
		t.Parallel()

		fn, _ := function.Lookup(function.F2)
		report := model.NewFunctionReport(fn)
		report.Intervals = []bracket.Interval{{A: 3, B: 4}}

		for _, m := range solver.Methods() {
			step := NewSolveStep(m, WithTolerance(1e-10), WithStepLogger(quietLogger()))
			if err := step.Do(context.Background(), fn, report); err != nil {
				t.Fatalf("%s: unexpected error: %v", m, err)
			}
		}
		if len(report.Solves) != 2 {
			t.Fatalf("expected 2 solves, got %d", len(report.Solves))
		}
		for _, s := range report.Solves {
			if !s.Result.Converged || math.Abs(s.Result.Root-3.631980805566063) > 1e-8 {
				t.Errorf("%s: unexpected result %+v", s.Method, s.Result)
			}
		}
		if report.Solves[0].Seed != 3 {
			t.Errorf("newton seed = %v, want 3", report.Solves[0].Seed)
		}
	})

	t.Run("failed solve is recorded and not returned", func(t *testing.T) {
		t.Parallel()

		fn := function.Func("cycle", func(x float64) float64 { return x*x*x - 2*x + 2 },
			func(x float64) float64 { return 3*x*x - 2 })
		report := model.NewFunctionReport(fn)
		report.Intervals = []bracket.Interval{{A: 0, B: 1}}

		step := NewSolveStep(solver.MethodNewton, WithMaxIterations(20), WithStepLogger(quietLogger()))
		if err := step.Do(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Solves) != 1 || report.Solves[0].Error == "" {
			t.Fatalf("expected a recorded failure, got %+v", report.Solves)
		}
	})

	t.Run("trace records every iteration", func(t *testing.T) {
		t.Parallel()

		fn, _ := function.Lookup(function.F3)
		report := model.NewFunctionReport(fn)
		report.Intervals = []bracket.Interval{{A: -2, B: -1}, {A: 3, B: 4}}

		var buf bytes.Buffer
		rec := recorder.NewWriter(&buf)
		step := NewSolveStep(solver.MethodBisection, WithTolerance(1e-6), WithTrace(rec), WithStepLogger(quietLogger()))
		if err := step.Do(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var total int32
		for _, s := range report.Solves {
			total += s.Result.Iterations
		}
		if rec.Count() != int(total) {
			t.Errorf("recorded %d lines, want %d", rec.Count(), total)
		}
		if !strings.HasPrefix(buf.String(), "f3_1:Bisection:") {
			t.Errorf("unexpected first line %q", buf.String())
		}
		if !strings.Contains(buf.String(), "f3_2:Bisection:") {
			t.Error("second root not traced")
		}
	})

	t.Run("sink failure aborts", func(t *testing.T) {
		t.Parallel()

		fn, _ := function.Lookup(function.F2)
		report := model.NewFunctionReport(fn)
		report.Intervals = []bracket.Interval{{A: 3, B: 4}}

		step := NewSolveStep(solver.MethodBisection, WithTrace(recorder.NewWriter(failingWriter{})), WithStepLogger(quietLogger()))
		err := step.Do(context.Background(), fn, report)
		if !errors.Is(err, recorder.ErrSinkUnavailable) {
			t.Fatalf("expected ErrSinkUnavailable, got %v", err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(Config{Scanner: newScanner(t), Logger: quietLogger()})
		names := p.StepNames()
		want := []string{"brackets", "newton", "bisection"}
		if len(names) != len(want) {
			t.Fatalf("got %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("step %d: got %s, want %s", i, names[i], want[i])
			}
		}
	})

	t.Run("single method", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(Config{
			Scanner: newScanner(t),
			Methods: []solver.Method{solver.MethodBisection},
			Logger:  quietLogger(),
		})
		if p.StepCount() != 2 {
			t.Errorf("expected 2 steps, got %v", p.StepNames())
		}
	})

	t.Run("end to end on f3", func(t *testing.T) {
		t.Parallel()

		fn, _ := function.Lookup(function.F3)
		report := model.NewFunctionReport(fn)
		p := DefaultPipeline(Config{Scanner: newScanner(t), Tolerance: 1e-12, Logger: quietLogger()})
		if err := p.Execute(context.Background(), fn, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Solves) != 4 {
			t.Fatalf("expected 4 solves, got %d", len(report.Solves))
		}
		for _, s := range report.SolvesByMethod(solver.MethodBisection) {
			if !s.Result.Converged {
				t.Errorf("%s bisection did not converge: %+v", s.Label, s.Result)
			}
		}
	})
}
