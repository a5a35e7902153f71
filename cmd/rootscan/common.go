package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/nao1215/rootscan/internal/config"
	"github.com/nao1215/rootscan/internal/database"
	rlog "github.com/nao1215/rootscan/internal/log"
	"github.com/nao1215/rootscan/internal/report"
	"github.com/spf13/cobra"
)

// addDomainFlags registers the bracket scan flags.
func addDomainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lo", config.DefaultLo, "Lower bound of the scanned domain")
	cmd.Flags().Float64("hi", config.DefaultHi, "Upper bound of the scanned domain")
	cmd.Flags().Float64("step", config.DefaultStep,
		"Sampling step of the bracket scan (roots closer than this may be missed)")
	cmd.Flags().Int("capacity", config.DefaultCapacity, "Maximum number of brackets per function")
	cmd.Flags().StringSliceP("functions", "f", nil, "Functions to process: f1, f2, f3 (default: all)")
}

// addSolverFlags registers the solver flags.
func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("method", "m", nil, "Solvers to run: newton, bisection (default: all)")
	cmd.Flags().IntP("max-iterations", "n", config.DefaultMaxIterations, "Iteration cap of every solve")
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir, "Directory receiving the error logs")
}

// addReportFlags registers the report and history flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("locale", config.DefaultLocale, "Locale used to format numbers in text reports")
	cmd.Flags().Bool("color", false, "Colour solve statuses (default: on for a terminal)")
	cmd.Flags().Bool("no-db", false, "Do not store the run in the history database")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
}

// changed reports whether the flag exists on cmd and was set by the user.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// setFlag copies the value of a changed flag into dst.
func setFlag[T any](cmd *cobra.Command, name string, dst *T, get func(string) (T, error)) error {
	if !changed(cmd, name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags the user set, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	fs := cmd.Flags()

	if err := setFlag(cmd, "config", &cfg.ConfigFilePath, fs.GetString); err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	var noTrace, noDB bool
	err := errors.Join(
		setFlag(cmd, "lo", &cfg.Lo, fs.GetFloat64),
		setFlag(cmd, "hi", &cfg.Hi, fs.GetFloat64),
		setFlag(cmd, "step", &cfg.Step, fs.GetFloat64),
		setFlag(cmd, "capacity", &cfg.Capacity, fs.GetInt),
		setFlag(cmd, "functions", &cfg.Functions, fs.GetStringSlice),
		setFlag(cmd, "method", &cfg.Methods, fs.GetStringSlice),
		setFlag(cmd, "tolerance", &cfg.Tolerance, fs.GetFloat64),
		setFlag(cmd, "max-iterations", &cfg.MaxIterations, fs.GetInt),
		setFlag(cmd, "output-dir", &cfg.OutputDir, fs.GetString),
		setFlag(cmd, "concurrency", &cfg.Concurrency, fs.GetInt),
		setFlag(cmd, "from", &cfg.SweepFrom, fs.GetInt),
		setFlag(cmd, "to", &cfg.SweepTo, fs.GetInt),
		setFlag(cmd, "locale", &cfg.Locale, fs.GetString),
		setFlag(cmd, "log-format", &cfg.LogFormat, fs.GetString),
		setFlag(cmd, "verbose", &cfg.Verbose, fs.GetBool),
		setFlag(cmd, "json", &cfg.JSONReport, fs.GetBool),
		setFlag(cmd, "markdown", &cfg.MarkdownReport, fs.GetBool),
		setFlag(cmd, "output", &cfg.ReportFile, fs.GetString),
		setFlag(cmd, "db-dir", &cfg.DBDir, fs.GetString),
		setFlag(cmd, "no-trace", &noTrace, fs.GetBool),
		setFlag(cmd, "no-db", &noDB, fs.GetBool),
	)
	if err != nil {
		return nil, err
	}
	if changed(cmd, "no-trace") {
		cfg.Trace = !noTrace
	}
	if changed(cmd, "no-db") {
		cfg.SaveToDB = !noDB
	}
	// A --json or --markdown flag overrides the report format of the file.
	if changed(cmd, "json") && cfg.JSONReport && !changed(cmd, "markdown") {
		cfg.MarkdownReport = false
	}
	if changed(cmd, "markdown") && cfg.MarkdownReport && !changed(cmd, "json") {
		cfg.JSONReport = false
	}

	// Colour only makes sense on a terminal unless asked for.
	cfg.Color = cfg.ReportFile == "" && !color.NoColor
	if err := setFlag(cmd, "color", &cfg.Color, fs.GetBool); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfig builds, validates and logs the configuration of a command.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)
	if cfg.File != nil {
		logger.Debug("configuration file loaded", "path", config.FindConfigFile(cfg.ConfigFilePath))
	}
	return cfg, logger, nil
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool, format string) *slog.Logger {
	return rlog.NewLogger(os.Stderr, verbose, format)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openReportOutput returns the report destination: the configured file, or
// the command's standard output. The returned close function is never nil.
func openReportOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter creates the report writer selected by the configuration.
func newReportWriter(cfg *config.Config, output io.Writer) (report.Writer, error) {
	tag, err := cfg.LanguageTag()
	if err != nil {
		return nil, err
	}
	return report.New(cfg.ReportFormat(), output,
		report.WithLocale(tag),
		report.WithColor(cfg.Color),
		report.WithVerbose(cfg.Verbose),
	)
}

// openHistory opens the history database if saving is enabled.
// It returns nil when the run should not be stored.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.DBDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "path", db.Path())
	return db, nil
}

// ensureOutputDir creates the directory receiving the error logs.
func ensureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
