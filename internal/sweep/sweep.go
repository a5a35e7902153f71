package sweep

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/recorder"
	"github.com/nao1215/rootscan/internal/solver"
	"golang.org/x/crypto/sha3"
)

// Default exponents of the tolerance sequence.
const (
	DefaultFromExponent = -1
	DefaultToExponent   = -15
)

// Config holds the parameters of a sweep.
type Config struct {
	// ID identifies the sweep in the report.
	ID string

	// Scanner locates the brackets; they are computed once per function.
	Scanner *bracket.Scanner

	// Tolerances is the ε sequence, in sweep order. Empty means
	// model.Tolerances(DefaultFromExponent, DefaultToExponent).
	Tolerances []float64

	// Methods lists the solvers in sweep order. Empty means all.
	Methods []solver.Method

	// MaxIterations is the iteration cap of every solve.
	MaxIterations int

	// Logger receives progress messages.
	Logger *slog.Logger
}

type root struct {
	label    string
	fn       function.Function
	interval bracket.Interval
}

// Run executes the sweep over fns and passes one record per solve to rec.
// Solve failures are recorded (NaN for inapplicable or degenerate solves)
// and never stop the sweep; a failing recorder does.
func Run(ctx context.Context, fns []function.Function, cfg Config, rec recorder.Recorder) (*model.SweepReport, error) {
	tolerances := cfg.Tolerances
	if len(tolerances) == 0 {
		var err error
		if tolerances, err = model.Tolerances(DefaultFromExponent, DefaultToExponent); err != nil {
			return nil, err
		}
	}
	// Zero would run at solver.DefaultTolerance but be reported as ε = 0.
	for _, eps := range tolerances {
		if !(eps > 0) || math.IsInf(eps, 0) {
			return nil, fmt.Errorf("%w: %v", solver.ErrInvalidTolerance, eps)
		}
	}
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = solver.Methods()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Scanner == nil {
		s, err := bracket.NewScanner()
		if err != nil {
			return nil, err
		}
		cfg.Scanner = s
	}

	roots, err := collectRoots(fns, cfg.Scanner, logger)
	if err != nil {
		return nil, err
	}

	// The digest covers the same lines a WriterRecorder emits.
	hash := sha3.New256()
	sink := recorder.Multi(rec, recorder.NewWriter(hash))
	report := &model.SweepReport{
		ID:         cfg.ID,
		StartedAt:  time.Now(),
		Tolerances: tolerances,
		Samples:    make([]model.Sample, 0, len(tolerances)*len(methods)*len(roots)),
	}

	for _, eps := range tolerances {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		for _, m := range methods {
			for _, r := range roots {
				res, err := solve(r, m, solver.Options{Tolerance: eps, MaxIterations: cfg.MaxIterations})
				if err != nil {
					return report, err
				}
				if err := sink.Record(recorder.FinalRecord(r.label, m, res)); err != nil {
					return report, err
				}
				report.Samples = append(report.Samples, model.Sample{
					Tolerance: eps,
					Label:     r.label,
					Method:    m,
					Result:    res,
				})
			}
		}
		logger.Debug("tolerance done", "tolerance", eps, "samples", len(report.Samples))
	}

	report.Digest = hex.EncodeToString(hash.Sum(nil))
	return report, nil
}

// collectRoots scans every function and labels its brackets.
func collectRoots(fns []function.Function, scanner *bracket.Scanner, logger *slog.Logger) ([]root, error) {
	var roots []root
	for _, fn := range fns {
		intervals, err := scanner.Scan(fn)
		switch {
		case errors.Is(err, bracket.ErrCapacityExceeded):
			logger.Warn("bracket capacity exceeded", "function", fn.Label(), "capacity", scanner.Capacity())
		case err != nil:
			return nil, fmt.Errorf("scan %s: %w", fn.Label(), err)
		}
		if len(intervals) == 0 {
			logger.Warn("no sign change found", "function", fn.Label())
		}
		for i, iv := range intervals {
			roots = append(roots, root{
				label:    model.RootLabel(fn.Label(), i, len(intervals)),
				fn:       fn,
				interval: iv,
			})
		}
	}
	return roots, nil
}

// solve runs one method on one root. Solver failures are carried in the
// result status; only an unknown method is an error.
func solve(r root, m solver.Method, opts solver.Options) (solver.Result, error) {
	var res solver.Result
	switch m {
	case solver.MethodNewton:
		res, _ = solver.Newton(r.fn, r.interval.A, opts) //nolint:errcheck // status carries the failure
	case solver.MethodBisection:
		res, _ = solver.Bisection(r.fn, r.interval, opts) //nolint:errcheck // status carries the failure
	default:
		return res, fmt.Errorf("%w: %d", solver.ErrUnknownMethod, int(m))
	}
	return res, nil
}
