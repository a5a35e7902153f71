package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nao1215/rootscan/internal/config"
	"github.com/nao1215/rootscan/internal/database"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/recorder"
	"github.com/nao1215/rootscan/internal/sweep"
	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure the final error of each solver across tolerances",
		Long: `Sweep solves every root again for the tolerances 10^from down to 10^to
(1e-1 ... 1e-15 by default) and writes the final error of every solve to
accuracy_error_analysis.txt in the output directory.

Records are ordered by tolerance, then method, then root, so two sweeps
with the same settings produce identical files. The SHA3-256 digest of the
file is shown in the report and stored in the history database.

Examples:
  # Default sweep
  rootscan sweep

  # Only bisection, tolerances 1e-2 ... 1e-10, as Markdown
  rootscan sweep -m bisection --from -2 --to -10 --markdown`,
		Args: cobra.NoArgs,
		RunE: runSweepCmd,
	}

	addDomainFlags(cmd)
	addSolverFlags(cmd)
	cmd.Flags().Int("from", config.DefaultSweepFrom, "Exponent of the loosest tolerance")
	cmd.Flags().Int("to", config.DefaultSweepTo, "Exponent of the tightest tolerance")
	addReportFlags(cmd)

	return cmd
}

// runSweepCmd executes the sweep command.
func runSweepCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

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

	sw, err := runSweep(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := writeSweepReport(cfg, out, sw); err != nil {
		return err
	}
	saveSweep(ctx, db, sw, logger)
	return nil
}

// runSweep runs the accuracy sweep into the accuracy log of the output
// directory. The log is truncated first.
func runSweep(ctx context.Context, cfg *config.Config, logger *slog.Logger) (report *model.SweepReport, err error) {
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

	tolerances, err := model.Tolerances(cfg.SweepFrom, cfg.SweepTo)
	if err != nil {
		return nil, err
	}

	rec, err := recorder.Open(filepath.Join(cfg.OutputDir, recorder.AccuracyFile))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	logger.Info("starting sweep",
		"functions", len(fns),
		"tolerances", len(tolerances),
		"path", rec.Path(),
	)

	report, err = sweep.Run(ctx, fns, sweep.Config{
		ID:            uuid.NewString(),
		Scanner:       scanner,
		Tolerances:    tolerances,
		Methods:       methods,
		MaxIterations: cfg.MaxIterations,
		Logger:        logger,
	}, rec)
	if err != nil {
		return nil, fmt.Errorf("sweep failed: %w", err)
	}

	logger.Info("sweep completed", "samples", len(report.Samples), "digest", report.Digest)
	return report, nil
}

// writeSweepReport outputs the sweep report in the requested format.
func writeSweepReport(cfg *config.Config, out io.Writer, sw *model.SweepReport) error {
	w, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	if _, err := w.WriteSweep(sw); err != nil {
		return fmt.Errorf("failed to write sweep report: %w", err)
	}
	return nil
}

// saveSweep saves the sweep to the database if enabled.
func saveSweep(ctx context.Context, db *database.HistoryDB, sw *model.SweepReport, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.SaveSweep(ctx, sw); err != nil {
		logger.Error("failed to save sweep", "id", sw.ID, "error", err)
		return
	}
	logger.Info("sweep saved to database", "id", sw.ID)
}
