// Package plot dumps sampled function values for external plotting tools.
//
// The output is a whitespace-separated table, one "x f(x)" pair per line,
// that gnuplot and numpy.loadtxt read directly. Non-finite values (for
// example at the pole of f3) are written as NaN/+Inf/-Inf.
package plot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/recorder"
)

// ErrInvalidRange is returned when a Range cannot be sampled.
var ErrInvalidRange = errors.New("invalid plot range: need finite lo < hi and positive step")

// Default display ranges.
const (
	// DefaultLo and DefaultHi bound the display range of f1 and f2.
	DefaultLo = -10.0
	DefaultHi = 10.0

	// WideLo and WideHi bound the display range of f3, whose shape is
	// dominated by the pole near the origin.
	WideLo = -15.0
	WideHi = 15.0

	// DefaultStep is the sampling step.
	DefaultStep = 0.1
)

// Range is a uniform sampling grid.
type Range struct {
	Lo   float64 `yaml:"lo"`
	Hi   float64 `yaml:"hi"`
	Step float64 `yaml:"step"`
}

// DefaultRange returns the display range used for fn.
func DefaultRange(fn function.Function) Range {
	if len(function.Singularities(fn)) > 0 {
		return Range{Lo: WideLo, Hi: WideHi, Step: DefaultStep}
	}
	return Range{Lo: DefaultLo, Hi: DefaultHi, Step: DefaultStep}
}

// Points returns the number of samples in the range.
func (r Range) Points() int {
	return int(math.Floor((r.Hi-r.Lo)/r.Step+1e-9)) + 1
}

func (r Range) validate() error {
	if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) || math.IsInf(r.Lo, 0) || math.IsInf(r.Hi, 0) ||
		r.Lo >= r.Hi || !(r.Step > 0) || math.IsInf(r.Step, 0) {
		return fmt.Errorf("%w (lo=%v, hi=%v, step=%v)", ErrInvalidRange, r.Lo, r.Hi, r.Step)
	}
	return nil
}

// Write samples fn at lo + i·step for every point of r and writes one
// "x f(x)" line per sample.
func Write(w io.Writer, fn function.Function, r Range) error {
	if err := r.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	n := r.Points()
	for i := 0; i < n; i++ {
		x := r.Lo + float64(i)*r.Step
		if _, err := fmt.Fprintf(bw, "%f %.15f\n", x, fn.Evaluate(x)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileName returns the plot file name for fn.
func FileName(fn function.Function) string {
	return fn.Label() + "_plot.txt"
}

// WriteFile writes the plot table of fn into dir and returns the file
// path. Failing to create the file yields recorder.ErrSinkUnavailable.
func WriteFile(dir string, fn function.Function, r Range) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(fn))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // plot data is not sensitive
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", recorder.ErrSinkUnavailable, path, err)
	}
	if err := Write(f, fn, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: %s: %v", recorder.ErrSinkUnavailable, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", recorder.ErrSinkUnavailable, path, err)
	}
	return path, nil
}
