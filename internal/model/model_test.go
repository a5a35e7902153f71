package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/solver"
)

func TestNewFunctionReport(t *testing.T) {
	t.Parallel()

	f3, err := function.Lookup(function.F3)
	if err != nil {
		t.Fatal(err)
	}
	r := NewFunctionReport(f3)
	if r.Function != "f3" {
		t.Errorf("Function = %q", r.Function)
	}
	if r.Formula == "" {
		t.Error("expected formula")
	}
	if len(r.Singularities) != 1 || r.Singularities[0] != 0 {
		t.Errorf("Singularities = %v", r.Singularities)
	}
	if r.Intervals == nil || r.Solves == nil || r.PerformedSteps == nil {
		t.Error("slices must be initialized for JSON output")
	}
}

func TestRootLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		i, n  int
		want  string
	}{
		{"f1", 0, 1, "f1"},
		{"f1", 0, 0, "f1"},
		{"f3", 0, 2, "f3_1"},
		{"f3", 1, 2, "f3_2"},
	}
	for _, tt := range tests {
		if got := RootLabel(tt.label, tt.i, tt.n); got != tt.want {
			t.Errorf("RootLabel(%q, %d, %d) = %q, want %q", tt.label, tt.i, tt.n, got, tt.want)
		}
	}

	r := &FunctionReport{Function: "f3", Intervals: []bracket.Interval{{A: -2, B: -1}, {A: 3, B: 4}}}
	if r.RootLabel(1) != "f3_2" {
		t.Errorf("RootLabel(1) = %q", r.RootLabel(1))
	}
}

func TestRunReportCounts(t *testing.T) {
	t.Parallel()

	fr := &FunctionReport{
		Function:  "f2",
		Intervals: []bracket.Interval{{A: 3, B: 4}},
	}
	fr.AddSolve(Solve{Label: "f2", Method: solver.MethodNewton, Result: solver.Result{Status: solver.StatusConverged}})
	fr.AddSolve(Solve{Label: "f2", Method: solver.MethodBisection, Result: solver.Result{Status: solver.StatusNonConvergence}})

	run := NewRunReport("id", time.Unix(0, 0), Settings{})
	run.Functions = append(run.Functions, fr, nil)

	if got := len(run.AllSolves()); got != 2 {
		t.Errorf("AllSolves = %d", got)
	}
	if run.ConvergedCount() != 1 {
		t.Errorf("ConvergedCount = %d", run.ConvergedCount())
	}
	if run.StatusCounts()[solver.StatusNonConvergence] != 1 {
		t.Error("expected one non-convergence")
	}
	if run.RootCount() != 1 {
		t.Errorf("RootCount = %d", run.RootCount())
	}
	if len(fr.SolvesByMethod(solver.MethodBisection)) != 1 {
		t.Error("SolvesByMethod mismatch")
	}
}

func TestRunReportJSON(t *testing.T) {
	t.Parallel()

	fr := &FunctionReport{Function: "f2"}
	fr.AddSolve(Solve{
		Label:  "f2",
		Method: solver.MethodBisection,
		Result: solver.Result{Root: math.NaN(), Error: math.NaN(), Status: solver.StatusInapplicable},
		Error:  "inapplicable",
	})
	run := NewRunReport("abc", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Settings{Tolerance: 1e-6})
	run.Functions = append(run.Functions, fr)

	data, err := json.Marshal(run)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back RunReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.Functions[0].Solves[0]
	if got.Method != solver.MethodBisection || !math.IsNaN(got.Result.Root) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestTolerances(t *testing.T) {
	t.Parallel()

	got, err := Tolerances(-1, -15)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 15 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0] != 1e-1 || got[14] != 1e-15 {
		t.Errorf("bounds = %v, %v", got[0], got[14])
	}
	for i := 1; i < len(got); i++ {
		if got[i] >= got[i-1] {
			t.Errorf("tolerances must be descending: %v", got)
		}
	}
	if rev, err := Tolerances(-15, -1); err != nil || len(rev) != 15 || rev[0] != 1e-1 {
		t.Errorf("reversed arguments: %v %v", rev, err)
	}
}

func TestTolerancesRange(t *testing.T) {
	t.Parallel()

	smallest, err := Tolerances(MinToleranceExponent, MinToleranceExponent)
	if err != nil {
		t.Fatal(err)
	}
	if smallest[0] <= 0 {
		t.Errorf("1e%d rounded to %v", MinToleranceExponent, smallest[0])
	}

	tests := []struct {
		name     string
		from, to int
	}{
		{"below smallest subnormal", -1, -400},
		{"one past the bound", -1, MinToleranceExponent - 1},
		{"overflows to infinity", 400, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Tolerances(tt.from, tt.to)
			if !errors.Is(err, ErrToleranceExponent) {
				t.Fatalf("expected ErrToleranceExponent, got %v (%v)", err, got)
			}
		})
	}
}

func TestSweepReportSeries(t *testing.T) {
	t.Parallel()

	s := &SweepReport{Samples: []Sample{
		{Tolerance: 1e-1, Label: "f1", Method: solver.MethodNewton},
		{Tolerance: 1e-1, Label: "f3_1", Method: solver.MethodNewton},
		{Tolerance: 1e-1, Label: "f1", Method: solver.MethodBisection},
		{Tolerance: 1e-2, Label: "f1", Method: solver.MethodNewton},
	}}

	labels := s.Labels()
	if len(labels) != 2 || labels[0] != "f1" || labels[1] != "f3_1" {
		t.Errorf("Labels = %v", labels)
	}
	series := s.Series("f1", solver.MethodNewton)
	if len(series) != 2 || series[1].Tolerance != 1e-2 {
		t.Errorf("Series = %+v", series)
	}
}
