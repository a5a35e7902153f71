package sweep

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

func testConfig(t *testing.T) Config {
	t.Helper()
	s, err := bracket.NewScanner()
	if err != nil {
		t.Fatal(err)
	}
	return Config{
		ID:      "test",
		Scanner: s,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("read-only") }

func TestRunOrderAndCount(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report, err := Run(context.Background(), function.All(), testConfig(t), recorder.NewWriter(&buf))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// f1, f2 and the two roots of f3.
	const roots = 4
	want := 15 * 2 * roots
	if len(report.Samples) != want {
		t.Fatalf("expected %d samples, got %d", want, len(report.Samples))
	}

	records, err := recorder.ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != want {
		t.Fatalf("expected %d records, got %d", want, len(records))
	}

	wantLabels := []string{"f1", "f2", "f3_1", "f3_2"}
	for i := 0; i < 2*roots; i++ {
		r := records[i]
		method := "Newton"
		if i >= roots {
			method = "Bisection"
		}
		if r.Method != method || r.Function != wantLabels[i%roots] {
			t.Errorf("record %d: got %s:%s, want %s:%s", i, r.Function, r.Method, wantLabels[i%roots], method)
		}
	}
	if report.Tolerances[0] != 0.1 || report.Tolerances[len(report.Tolerances)-1] != 1e-15 {
		t.Errorf("unexpected tolerance order %v", report.Tolerances)
	}
}

func TestRunErrorsShrinkWithTolerance(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	tolerances, err := model.Tolerances(-2, -10)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Tolerances = tolerances
	cfg.Methods = []solver.Method{solver.MethodBisection}

	fn, _ := function.Lookup(function.F2)
	report, err := Run(context.Background(), []function.Function{fn}, cfg, recorder.Nop{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	series := report.Series("f2", solver.MethodBisection)
	if len(series) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(series))
	}
	for _, s := range series {
		if !s.Result.Converged || s.Result.Error > s.Tolerance {
			t.Errorf("eps %g: error %g", s.Tolerance, s.Result.Error)
		}
	}
}

func TestRunIsReproducible(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	ra, err := Run(context.Background(), function.All(), testConfig(t), recorder.NewWriter(&a))
	if err != nil {
		t.Fatal(err)
	}
	rb, err := Run(context.Background(), function.All(), testConfig(t), recorder.NewWriter(&b))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("sweep output differs between runs")
	}
	if ra.Digest == "" || ra.Digest != rb.Digest {
		t.Errorf("digests differ: %q vs %q", ra.Digest, rb.Digest)
	}
	if len(ra.Digest) != 64 {
		t.Errorf("unexpected digest length %d", len(ra.Digest))
	}
}

func TestRunRecordsFailuresAsNaN(t *testing.T) {
	t.Parallel()

	// Newton seeded at 0 for x^2 - 1 bracketed in [0, 2] hits f'(0) = 0.
	fn := function.Func("sq", func(x float64) float64 { return x*x - 1 }, func(x float64) float64 { return 2 * x })
	s, err := bracket.NewScanner(bracket.WithDomain(0, 2), bracket.WithStep(2))
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Scanner = s
	cfg.Tolerances = []float64{1e-6}
	cfg.Methods = []solver.Method{solver.MethodNewton}

	var buf bytes.Buffer
	report, err := Run(context.Background(), []function.Function{fn}, cfg, recorder.NewWriter(&buf))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Samples[0].Result.Status != solver.StatusDegenerateDerivative {
		t.Fatalf("unexpected status %v", report.Samples[0].Result.Status)
	}
	if strings.TrimSpace(buf.String()) != "sq:Newton:NaN" {
		t.Errorf("unexpected record %q", buf.String())
	}
	rec, err := recorder.Parse(buf.String())
	if err != nil || !math.IsNaN(rec.Error) {
		t.Errorf("record does not round trip: %+v %v", rec, err)
	}
}

func TestRunSinkFailure(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), function.All(), testConfig(t), recorder.NewWriter(brokenWriter{}))
	if !errors.Is(err, recorder.ErrSinkUnavailable) {
		t.Fatalf("expected ErrSinkUnavailable, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, function.All(), testConfig(t), recorder.Nop{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunRejectsUnusableTolerances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		eps  float64
	}{
		{"zero", 0},
		{"negative", -1e-6},
		{"NaN", math.NaN()},
		{"infinite", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.Tolerances = []float64{1e-3, tt.eps}
			var buf bytes.Buffer
			_, err := Run(context.Background(), function.All(), cfg, recorder.NewWriter(&buf))
			if !errors.Is(err, solver.ErrInvalidTolerance) {
				t.Fatalf("expected ErrInvalidTolerance, got %v", err)
			}
			if buf.Len() != 0 {
				t.Errorf("nothing should be recorded, got %q", buf.String())
			}
		})
	}
}

func TestRunRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Tolerances = []float64{1e-3}
	cfg.Methods = []solver.Method{solver.Method(99)}

	fn, _ := function.Lookup(function.F2)
	_, err := Run(context.Background(), []function.Function{fn}, cfg, recorder.Nop{})
	if !errors.Is(err, solver.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}
