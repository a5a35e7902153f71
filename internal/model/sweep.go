package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/rootscan/internal/solver"
)

// Sample is one accuracy-sweep solve.
type Sample struct {
	// Tolerance is the ε the solve was run with.
	Tolerance float64 `json:"tolerance"`

	// Label is the root label (see RootLabel).
	Label string `json:"label"`

	// Method is the solver used.
	Method solver.Method `json:"method"`

	// Result is the solver output; Result.Error is the recorded value.
	Result solver.Result `json:"result"`
}

// SweepReport is the result of one accuracy sweep.
type SweepReport struct {
	// ID uniquely identifies the sweep.
	ID string `json:"id"`

	// StartedAt is when the sweep began.
	StartedAt time.Time `json:"started_at"`

	// Tolerances is the ε sequence in sweep order.
	Tolerances []float64 `json:"tolerances"`

	// Samples holds every solve in log order.
	Samples []Sample `json:"samples"`

	// Digest is the hex SHA3-256 of the accuracy log bytes.
	Digest string `json:"digest"`
}

// Tolerance exponent bounds. 10^-323 is the smallest decimal power that
// does not round to zero; 10^308 the largest that is finite.
const (
	MinToleranceExponent = -323
	MaxToleranceExponent = 308
)

// ErrToleranceExponent is returned by Tolerances for an exponent outside
// [MinToleranceExponent, MaxToleranceExponent].
var ErrToleranceExponent = errors.New("tolerance exponent out of range")

// Tolerances returns 10^from, 10^(from-1), ..., 10^to for from >= to.
// The default sweep uses Tolerances(-1, -15).
func Tolerances(from, to int) ([]float64, error) {
	if from < to {
		from, to = to, from
	}
	if to < MinToleranceExponent || from > MaxToleranceExponent {
		return nil, fmt.Errorf("%w: [%d, %d] not within [%d, %d]",
			ErrToleranceExponent, to, from, MinToleranceExponent, MaxToleranceExponent)
	}
	out := make([]float64, 0, from-to+1)
	for e := from; e >= to; e-- {
		// Parsing "1e<e>" yields the float64 nearest to the decimal power,
		// which math.Pow does not guarantee for negative exponents.
		v, err := strconv.ParseFloat("1e"+strconv.Itoa(e), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: 1e%d: %v", ErrToleranceExponent, e, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Labels returns the distinct root labels in first-seen order.
func (s *SweepReport) Labels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, sm := range s.Samples {
		if !seen[sm.Label] {
			seen[sm.Label] = true
			out = append(out, sm.Label)
		}
	}
	return out
}

// Series returns the samples of one label and method in tolerance order.
func (s *SweepReport) Series(label string, method solver.Method) []Sample {
	var out []Sample
	for _, sm := range s.Samples {
		if sm.Label == label && sm.Method == method {
			out = append(out, sm)
		}
	}
	return out
}
