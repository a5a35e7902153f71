package model

import (
	"fmt"
	"time"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/solver"
)

// Run kinds stored in the history database.
const (
	KindSolve = "solve"
	KindSweep = "sweep"
)

// Solve is the outcome of one solver invocation on one bracket.
type Solve struct {
	// Label identifies the root: the function label, suffixed with the
	// 1-based bracket index when the function has several brackets.
	Label string `json:"label"`

	// Method is the solver used.
	Method solver.Method `json:"method"`

	// Interval is the bracket the solve was seeded from.
	Interval bracket.Interval `json:"interval"`

	// Seed is the Newton starting point; zero for bisection.
	Seed float64 `json:"seed,omitempty"`

	// Result is the solver output.
	Result solver.Result `json:"result"`

	// Error is the failure message, empty on convergence.
	Error string `json:"error,omitempty"`
}

// FunctionReport collects everything the pipeline learns about one
// function.
type FunctionReport struct {
	// Function is the function label, e.g. "f3".
	Function string `json:"function"`

	// Formula is the textual definition of the function.
	Formula string `json:"formula,omitempty"`

	// Singularities lists the points the scanner skipped around.
	Singularities []float64 `json:"singularities,omitempty"`

	// Intervals are the brackets found by the scanner, in domain order.
	Intervals []bracket.Interval `json:"intervals"`

	// CapacityExceeded is true when the scanner found more brackets than
	// it was allowed to return.
	CapacityExceeded bool `json:"capacity_exceeded,omitempty"`

	// Solves holds every solve in execution order.
	Solves []Solve `json:"solves"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the error that stopped the pipeline, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is true when the pipeline was cancelled.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewFunctionReport creates an empty report for fn.
func NewFunctionReport(fn function.Function) *FunctionReport {
	return &FunctionReport{
		Function:       fn.Label(),
		Formula:        function.Formula(fn),
		Singularities:  function.Singularities(fn),
		Intervals:      make([]bracket.Interval, 0),
		Solves:         make([]Solve, 0),
		PerformedSteps: make([]string, 0),
	}
}

// RootLabel returns the label of the i-th bracket (0-based): the plain
// function label when there is a single bracket, "<label>_<i+1>" otherwise.
func (r *FunctionReport) RootLabel(i int) string {
	return RootLabel(r.Function, i, len(r.Intervals))
}

// RootLabel labels bracket i of n for the function with the given label.
func RootLabel(label string, i, n int) string {
	if n <= 1 {
		return label
	}
	return fmt.Sprintf("%s_%d", label, i+1)
}

// AddSolve appends a solve.
func (r *FunctionReport) AddSolve(s Solve) {
	r.Solves = append(r.Solves, s)
}

// SolvesByMethod returns the solves made with method, in order.
func (r *FunctionReport) SolvesByMethod(method solver.Method) []Solve {
	var out []Solve
	for _, s := range r.Solves {
		if s.Method == method {
			out = append(out, s)
		}
	}
	return out
}

// Failed reports whether the pipeline stopped with an error.
func (r *FunctionReport) Failed() bool {
	return r.Error != nil || r.ErrorMessage != ""
}

// RunReport is the result of one solve run over a set of functions.
type RunReport struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// Settings records the parameters the run used.
	Settings Settings `json:"settings"`

	// Functions holds one report per function, in function order.
	Functions []*FunctionReport `json:"functions"`
}

// Settings are the tunables a run was made with.
type Settings struct {
	Lo            float64 `json:"lo"`
	Hi            float64 `json:"hi"`
	Step          float64 `json:"step"`
	Capacity      int     `json:"capacity"`
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

// NewRunReport creates an empty run report.
func NewRunReport(id string, startedAt time.Time, settings Settings) *RunReport {
	return &RunReport{
		ID:        id,
		StartedAt: startedAt,
		Settings:  settings,
		Functions: make([]*FunctionReport, 0),
	}
}

// AllSolves returns the solves of every function in order.
func (r *RunReport) AllSolves() []Solve {
	var out []Solve
	for _, fr := range r.Functions {
		if fr == nil {
			continue
		}
		out = append(out, fr.Solves...)
	}
	return out
}

// StatusCounts counts solves per status.
func (r *RunReport) StatusCounts() map[solver.Status]int {
	counts := make(map[solver.Status]int)
	for _, s := range r.AllSolves() {
		counts[s.Result.Status]++
	}
	return counts
}

// ConvergedCount returns the number of converged solves.
func (r *RunReport) ConvergedCount() int {
	return r.StatusCounts()[solver.StatusConverged]
}

// RootCount returns the number of brackets found over all functions.
func (r *RunReport) RootCount() int {
	var n int
	for _, fr := range r.Functions {
		if fr != nil {
			n += len(fr.Intervals)
		}
	}
	return n
}
