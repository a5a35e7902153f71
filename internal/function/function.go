package function

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownFunction is returned when an ID or label does not name one of
// the built-in functions.
var ErrUnknownFunction = errors.New("unknown function")

// Function is a named scalar function of one real variable.
type Function interface {
	// Label returns the short name used in logs and reports (e.g. "f1").
	Label() string

	// Evaluate returns f(x).
	Evaluate(x float64) float64
}

// Differentiable is a Function with an analytic first derivative.
type Differentiable interface {
	Function

	// Derivative returns f'(x).
	Derivative(x float64) float64
}

// Singular is implemented by functions that are undefined at isolated
// points. The bracket scanner never reports an interval containing one of
// these points.
type Singular interface {
	Singularities() []float64
}

// ID identifies one of the built-in functions.
type ID int

const (
	// F1 is f(x) = exp(-x^2) + 1 - x.
	F1 ID = iota + 1

	// F2 is f(x) = x^3 - 2x^2 - 4x - 7.
	F2

	// F3 is f(x) = x^3 - 2x^2 - 4x - 7/x, with a pole at x = 0.
	F3
)

// String returns the label of the function.
func (id ID) String() string {
	switch id {
	case F1:
		return "f1"
	case F2:
		return "f2"
	case F3:
		return "f3"
	default:
		return "unknown"
	}
}

// pair is the concrete Function implementation shared by the built-ins.
type pair struct {
	id       ID
	formula  string
	f        func(x float64) float64
	df       func(x float64) float64
	singular []float64
}

func (p pair) Label() string                { return p.id.String() }
func (p pair) Evaluate(x float64) float64   { return p.f(x) }
func (p pair) Derivative(x float64) float64 { return p.df(x) }

// Formula returns a human-readable definition of the function.
func (p pair) Formula() string { return p.formula }

// ID returns the identifier of the function.
func (p pair) ID() ID { return p.id }

// singularPair adds the Singular capability to a pair.
type singularPair struct {
	pair
}

// Singularities returns a copy of the function's discontinuity points.
func (p singularPair) Singularities() []float64 {
	out := make([]float64, len(p.singular))
	copy(out, p.singular)
	return out
}

var builtins = map[ID]Differentiable{
	F1: pair{
		id:      F1,
		formula: "exp(-x^2) + 1 - x",
		f: func(x float64) float64 {
			return math.Exp(-x*x) + 1 - x
		},
		df: func(x float64) float64 {
			return -2*x*math.Exp(-x*x) - 1
		},
	},
	F2: pair{
		id:      F2,
		formula: "x^3 - 2x^2 - 4x - 7",
		f: func(x float64) float64 {
			return x*x*x - 2*x*x - 4*x - 7
		},
		df: func(x float64) float64 {
			return 3*x*x - 4*x - 4
		},
	},
	F3: singularPair{pair{
		id:      F3,
		formula: "x^3 - 2x^2 - 4x - 7/x",
		f: func(x float64) float64 {
			return x*x*x - 2*x*x - 4*x - 7/x
		},
		df: func(x float64) float64 {
			return 3*x*x - 4*x - 4 + 7/(x*x)
		},
		singular: []float64{0},
	}},
}

// Lookup returns the built-in function for id.
func Lookup(id ID) (Differentiable, error) {
	fn, ok := builtins[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownFunction, int(id))
	}
	return fn, nil
}

// ParseID resolves a label such as "f2" (case-insensitive) to its ID.
func ParseID(label string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "f1":
		return F1, nil
	case "f2":
		return F2, nil
	case "f3":
		return F3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, label)
	}
}

// IDs returns every built-in function ID in ascending order.
func IDs() []ID {
	return []ID{F1, F2, F3}
}

// All returns every built-in function in ID order.
func All() []Function {
	out := make([]Function, 0, len(builtins))
	for _, id := range IDs() {
		out = append(out, builtins[id])
	}
	return out
}

// Resolve converts a list of labels into functions, preserving order and
// dropping duplicates. An empty list resolves to All().
func Resolve(labels []string) ([]Function, error) {
	if len(labels) == 0 {
		return All(), nil
	}
	seen := make(map[ID]bool, len(labels))
	out := make([]Function, 0, len(labels))
	for _, label := range labels {
		id, err := ParseID(label)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, builtins[id])
	}
	return out, nil
}

// Formula returns the textual definition of fn, or an empty string when fn
// is not a built-in.
func Formula(fn Function) string {
	if f, ok := fn.(interface{ Formula() string }); ok {
		return f.Formula()
	}
	return ""
}

// Singularities returns the discontinuity points of fn, or nil when fn does
// not implement Singular.
func Singularities(fn Function) []float64 {
	if s, ok := fn.(Singular); ok {
		return s.Singularities()
	}
	return nil
}

// Func adapts plain func values into a Differentiable. It is intended for
// tests and for callers that need an ad-hoc function; df may be nil, in
// which case the result only satisfies Function.
func Func(label string, f, df func(float64) float64) Function {
	if df == nil {
		return adhoc{label: label, f: f}
	}
	return adhocDiff{adhoc: adhoc{label: label, f: f}, df: df}
}

type adhoc struct {
	label string
	f     func(float64) float64
}

func (a adhoc) Label() string              { return a.label }
func (a adhoc) Evaluate(x float64) float64 { return a.f(x) }

type adhocDiff struct {
	adhoc
	df func(float64) float64
}

func (a adhocDiff) Derivative(x float64) float64 { return a.df(x) }
