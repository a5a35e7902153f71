package database

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/solver"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRun(id string, started time.Time) *model.RunReport {
	report := model.NewRunReport(id, started, model.Settings{
		Lo: -100, Hi: 100, Step: 0.01, Capacity: 1000, Tolerance: 1e-12, MaxIterations: 1000,
	})
	fr := &model.FunctionReport{Function: "f2", Intervals: []bracket.Interval{{A: 3.63, B: 3.64}}}
	fr.AddSolve(model.Solve{
		Label: "f2", Method: solver.MethodNewton,
		Result: solver.Result{Root: 3.631980805566063, Iterations: 3, Error: 1e-13, Converged: true, Status: solver.StatusConverged},
	})
	fr.AddSolve(model.Solve{
		Label: "f2", Method: solver.MethodBisection,
		Result: solver.Result{Root: math.NaN(), Error: math.NaN(), Status: solver.StatusInapplicable},
	})
	report.Functions = append(report.Functions, fr)
	return report
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if err := db.SaveRun(context.Background(), testRun("r1", time.Now())); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()
		runs, err := db.ListRuns(context.Background(), "", 0)
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected 1 run, got %v %v", runs, err)
		}
	})
}

func TestSaveRunAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.SaveRun(ctx, testRun("run-a", started)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := db.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Kind != model.KindSolve || run.Total != 2 || run.Converged != 1 {
		t.Errorf("unexpected summary %+v", run.RunSummary)
	}
	if !run.Timestamp.Equal(started) {
		t.Errorf("timestamp %v, want %v", run.Timestamp, started)
	}
	if len(run.Solves) != 2 {
		t.Fatalf("expected 2 solves, got %d", len(run.Solves))
	}
	if run.Solves[0].Method != solver.MethodNewton || run.Solves[0].Root != 3.631980805566063 {
		t.Errorf("unexpected first solve %+v", run.Solves[0])
	}
	if !math.IsNaN(run.Solves[1].Root) || run.Solves[1].Status != solver.StatusInapplicable {
		t.Errorf("NaN root not restored: %+v", run.Solves[1])
	}
	if run.SettingsJSON == "" || run.ReportJSON == "" {
		t.Error("expected stored JSON")
	}

	if err := db.SaveRun(ctx, testRun("run-a", started)); err == nil {
		t.Error("expected duplicate ID to fail")
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.GetRun(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveSweep(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	sweep := &model.SweepReport{
		ID:         "sweep-a",
		StartedAt:  time.Now(),
		Tolerances: []float64{1e-1, 1e-2},
		Digest:     "deadbeef",
		Samples: []model.Sample{
			{Tolerance: 1e-1, Label: "f1", Method: solver.MethodNewton, Result: solver.Result{Error: 0.01, Converged: true, Status: solver.StatusConverged}},
			{Tolerance: 1e-2, Label: "f1", Method: solver.MethodNewton, Result: solver.Result{Error: 0.001, Converged: true, Status: solver.StatusConverged}},
		},
	}
	if err := db.SaveSweep(ctx, sweep); err != nil {
		t.Fatalf("SaveSweep: %v", err)
	}

	run, err := db.GetRun(ctx, "sweep-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Kind != model.KindSweep || run.Digest != "deadbeef" {
		t.Errorf("unexpected summary %+v", run.RunSummary)
	}
	if len(run.Solves) != 2 || run.Solves[1].Tolerance != 1e-2 {
		t.Errorf("unexpected solves %+v", run.Solves)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := db.SaveRun(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SaveSweep(ctx, &model.SweepReport{ID: "sw", StartedAt: base.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		kind  string
		limit int
		want  []string
	}{
		{"all kinds", "", 0, []string{"new", "mid", "old", "sw"}},
		{"solve only", model.KindSolve, 0, []string{"new", "mid", "old"}},
		{"sweep only", model.KindSweep, 0, []string{"sw"}},
		{"limited", model.KindSolve, 2, []string{"new", "mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := db.ListRuns(ctx, tt.kind, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("got %d runs, want %d", len(runs), len(tt.want))
			}
			for i, id := range tt.want {
				if runs[i].ID != id {
					t.Errorf("run %d: got %s, want %s", i, runs[i].ID, id)
				}
			}
		})
	}
}
