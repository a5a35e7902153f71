package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/rootscan/internal/config"
	"github.com/nao1215/rootscan/internal/database"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/pipeline"
	"github.com/nao1215/rootscan/internal/plot"
	"github.com/nao1215/rootscan/internal/recorder"
	"github.com/spf13/cobra"
)

// NewSolveCmd creates the solve command.
func NewSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Bracket the roots of every function and refine them",
		Long: `Solve scans the domain for sign changes, then refines every bracket with
Newton's method (seeded at the left end of the bracket) and with bisection.

The error of every iteration is written to iteration_error_analysis.txt in
the output directory as "<root>:<method>:<error>" lines, for example
"f3_2:Newton:0.000000000000012". The log is emptied at the start of every
run, also with --no-trace. The run is stored in the history database
unless --no-db is given.

Examples:
  # Solve every function with default settings
  rootscan solve

  # Only f3, with a looser tolerance, as Markdown
  rootscan solve -f f3 -e 1e-8 --markdown

  # Also write the plot data and run the accuracy sweep
  rootscan solve --plot --sweep -d out/

  # Store the JSON report in a file
  rootscan solve --json -o reports/run.json`,
		Args: cobra.NoArgs,
		RunE: runSolveCmd,
	}

	addDomainFlags(cmd)
	addSolverFlags(cmd)
	cmd.Flags().Float64P("tolerance", "e", config.DefaultTolerance, "Convergence tolerance of both solvers")
	cmd.Flags().Bool("no-trace", false, "Leave the per-iteration error log empty")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of functions solved at once (above 1 the trace log is not in function order)")
	cmd.Flags().Bool("plot", false, "Also write the plot data of every function")
	cmd.Flags().Bool("sweep", false, "Also run the accuracy sweep")
	addReportFlags(cmd)

	return cmd
}

// runSolveCmd executes the solve command.
func runSolveCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	withPlot, err := cmd.Flags().GetBool("plot")
	if err != nil {
		return err
	}
	withSweep, err := cmd.Flags().GetBool("sweep")
	if err != nil {
		return err
	}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	out, closeOut, err := openReportOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	run, err := runSolve(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := writeRunReport(cfg, out, run); err != nil {
		return err
	}
	saveRun(ctx, db, run, logger)

	if withPlot {
		if err := writePlots(cmd.ErrOrStderr(), cfg, logger); err != nil {
			return err
		}
	}
	if withSweep {
		sw, err := runSweep(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if err := writeSweepReport(cfg, out, sw); err != nil {
			return err
		}
		saveSweep(ctx, db, sw, logger)
	}

	return nil
}

// runSolve brackets and solves every configured function. A log that
// cannot be opened or written aborts the run.
func runSolve(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.RunReport, error) {
	fns, err := function.Resolve(cfg.Functions)
	if err != nil {
		return nil, err
	}
	methods, err := cfg.SolverMethods()
	if err != nil {
		return nil, err
	}
	scanner, err := cfg.Scanner()
	if err != nil {
		return nil, err
	}
	if err := ensureOutputDir(cfg.OutputDir); err != nil {
		return nil, err
	}

	// The trace log is truncated even when tracing is off so that it never
	// holds records of an earlier run.
	fr, err := recorder.Open(filepath.Join(cfg.OutputDir, recorder.TraceFile))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := fr.Close(); err != nil {
			logger.Error("failed to close trace log", "path", fr.Path(), "error", err)
		}
	}()
	var trace recorder.Recorder
	if cfg.Trace {
		trace = fr
	}

	logger.Info("starting solve",
		"functions", len(fns),
		"methods", len(methods),
		"tolerance", cfg.Tolerance,
		"concurrency", cfg.Concurrency,
	)

	run := model.NewRunReport(uuid.NewString(), time.Now(), model.Settings{
		Lo:            cfg.Lo,
		Hi:            cfg.Hi,
		Step:          cfg.Step,
		Capacity:      cfg.Capacity,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
	})

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(pipeline.Config{
				Scanner:       scanner,
				Methods:       methods,
				Tolerance:     cfg.Tolerance,
				MaxIterations: cfg.MaxIterations,
				Trace:         trace,
				Logger:        logger,
			})
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, fns)
	if err != nil {
		return nil, fmt.Errorf("solve run failed: %w", err)
	}
	run.Functions = reports
	run.Duration = time.Since(run.StartedAt)

	logger.Info("solve completed",
		"roots", run.RootCount(),
		"converged", run.ConvergedCount(),
		"elapsed", run.Duration.Round(time.Millisecond),
	)
	return run, nil
}

// writeRunReport outputs the run report in the requested format.
func writeRunReport(cfg *config.Config, out io.Writer, run *model.RunReport) error {
	w, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writePlots writes the plot data of every configured function into the
// output directory and lists the files on progress.
func writePlots(progress io.Writer, cfg *config.Config, logger *slog.Logger) error {
	fns, err := function.Resolve(cfg.Functions)
	if err != nil {
		return err
	}
	if err := ensureOutputDir(cfg.OutputDir); err != nil {
		return err
	}
	for _, fn := range fns {
		r := cfg.File.PlotRange(fn)
		path, err := plot.WriteFile(cfg.OutputDir, fn, r)
		if err != nil {
			return err
		}
		logger.Debug("plot data written", "function", fn.Label(), "path", path, "points", r.Points())
		fmt.Fprintf(progress, "Plot data written: %s\n", path)
	}
	return nil
}

// saveRun saves the run to the database if enabled.
// If db is nil, this function is a no-op. Failures are logged, not returned:
// the report has already been written.
func saveRun(ctx context.Context, db *database.HistoryDB, run *model.RunReport, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.SaveRun(ctx, run); err != nil {
		logger.Error("failed to save run", "id", run.ID, "error", err)
		return
	}
	logger.Info("run saved to database", "id", run.ID)
}
