package bracket

import (
	"fmt"
	"math"

	"github.com/nao1215/rootscan/internal/function"
)

// Default scan parameters.
const (
	// DefaultLo is the lower bound of the scan domain.
	DefaultLo = -100.0

	// DefaultHi is the upper bound of the scan domain.
	DefaultHi = 100.0

	// DefaultStep is the sampling step. 0.01 separates the two roots of f3
	// that a unit step merges; use 1.0 for a coarse scan.
	DefaultStep = 0.01

	// DefaultCapacity bounds the number of brackets returned by Scan.
	DefaultCapacity = 1000
)

// Scanner samples a function over [lo, hi] looking for sign changes.
// A Scanner is immutable and safe for concurrent use.
type Scanner struct {
	lo       float64
	hi       float64
	step     float64
	capacity int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDomain sets the scan domain [lo, hi].
func WithDomain(lo, hi float64) Option {
	return func(s *Scanner) {
		s.lo = lo
		s.hi = hi
	}
}

// WithStep sets the sampling step.
func WithStep(step float64) Option {
	return func(s *Scanner) {
		s.step = step
	}
}

// WithCapacity sets the maximum number of brackets Scan returns.
func WithCapacity(n int) Option {
	return func(s *Scanner) {
		s.capacity = n
	}
}

// MaxSegments bounds (hi-lo)/step so the sample index stays an int.
const MaxSegments = math.MaxInt32

// NewScanner creates a Scanner. Unset parameters take the Default* values.
// It returns an error if the resulting configuration is invalid.
func NewScanner(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		lo:       DefaultLo,
		hi:       DefaultHi,
		step:     DefaultStep,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) validate() error {
	if !finite(s.lo) || !finite(s.hi) || s.lo >= s.hi {
		return fmt.Errorf("%w (lo=%v, hi=%v)", ErrInvalidDomain, s.lo, s.hi)
	}
	if !finite(s.step) || s.step <= 0 {
		return fmt.Errorf("%w (step=%v)", ErrInvalidStep, s.step)
	}
	if n := (s.hi - s.lo) / s.step; !finite(n) || n > MaxSegments {
		return fmt.Errorf("%w (step=%v gives more than %d samples in [%v, %v])",
			ErrInvalidStep, s.step, MaxSegments, s.lo, s.hi)
	}
	if s.capacity <= 0 {
		return fmt.Errorf("%w (capacity=%d)", ErrInvalidCapacity, s.capacity)
	}
	return nil
}

// Domain returns the scan bounds.
func (s *Scanner) Domain() (lo, hi float64) {
	return s.lo, s.hi
}

// Step returns the sampling step.
func (s *Scanner) Step() float64 {
	return s.step
}

// Capacity returns the maximum number of brackets Scan returns.
func (s *Scanner) Capacity() int {
	return s.capacity
}

// Scan returns every bracket of fn in the domain, in ascending order.
// A domain without sign changes yields an empty slice and a nil error.
// When more than Capacity brackets exist, the first Capacity brackets are
// returned together with ErrCapacityExceeded.
func (s *Scanner) Scan(fn function.Function) ([]Interval, error) {
	out := make([]Interval, 0)
	var overflow bool
	s.walk(fn, func(iv Interval) bool {
		if len(out) == s.capacity {
			overflow = true
			return false
		}
		out = append(out, iv)
		return true
	})
	if overflow {
		return out, fmt.Errorf("%w: %s has more than %d brackets in [%v, %v]",
			ErrCapacityExceeded, fn.Label(), s.capacity, s.lo, s.hi)
	}
	return out, nil
}

// First returns the leftmost bracket of fn, or ErrNoBracket when the domain
// holds no sign change.
func (s *Scanner) First(fn function.Function) (Interval, error) {
	var (
		found Interval
		ok    bool
	)
	s.walk(fn, func(iv Interval) bool {
		found, ok = iv, true
		return false
	})
	if !ok {
		return Interval{}, fmt.Errorf("%w: %s in [%v, %v]", ErrNoBracket, fn.Label(), s.lo, s.hi)
	}
	return found, nil
}

// walk visits every sign-change sub-interval from left to right until
// visit returns false.
func (s *Scanner) walk(fn function.Function, visit func(Interval) bool) {
	poles := function.Singularities(fn)
	n := s.segments()

	a := s.lo
	fa := fn.Evaluate(a)
	for i := 1; i <= n; i++ {
		b := s.lo + float64(i)*s.step
		if i == n || b > s.hi {
			b = s.hi
		}
		fb := fn.Evaluate(b)

		iv := Interval{A: a, B: b}
		if !containsAny(iv, poles) && fa*fb < 0 {
			if !visit(iv) {
				return
			}
		}
		a, fa = b, fb
	}
}

// segments returns the number of sub-intervals covering [lo, hi]. Sample
// points are computed as lo + i·step so that long scans do not accumulate
// rounding drift.
func (s *Scanner) segments() int {
	exact := (s.hi - s.lo) / s.step
	n := math.Round(exact)
	if math.Abs(exact-n) > 1e-9*math.Max(1, exact) {
		n = math.Ceil(exact)
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}

func containsAny(iv Interval, points []float64) bool {
	for _, p := range points {
		if iv.Contains(p) {
			return true
		}
	}
	return false
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
