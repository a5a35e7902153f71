package config

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/solver"
	"github.com/nao1215/rootscan/internal/sweep"
	"golang.org/x/text/language"
)

// Default configuration values.
const (
	// DefaultLo and DefaultHi bound the bracket scan domain.
	DefaultLo = bracket.DefaultLo
	DefaultHi = bracket.DefaultHi

	// DefaultStep is the scan sampling step. Roots closer together than
	// this may be missed.
	DefaultStep = bracket.DefaultStep

	// DefaultCapacity caps the number of brackets per function.
	DefaultCapacity = bracket.DefaultCapacity

	// DefaultTolerance is the solver stopping threshold. It is close to
	// double precision, so Newton usually stops on the step size of the
	// last iteration rather than on the tolerance.
	DefaultTolerance = solver.DefaultTolerance

	// DefaultMaxIterations is the solver iteration cap.
	DefaultMaxIterations = solver.DefaultMaxIterations

	// DefaultOutputDir is where the error logs and plot files are written.
	DefaultOutputDir = "."

	// DefaultConcurrency runs functions one after another so the trace log
	// is in function order.
	DefaultConcurrency = 1

	// DefaultSweepFrom and DefaultSweepTo are the tolerance exponents of
	// the accuracy sweep.
	DefaultSweepFrom = sweep.DefaultFromExponent
	DefaultSweepTo   = sweep.DefaultToExponent

	// DefaultLocale formats console numbers.
	DefaultLocale = "en"

	// DefaultLogFormat is the slog handler used on stderr.
	DefaultLogFormat = "text"

	// AppName is the application name used for XDG directory paths.
	AppName = "rootscan"
)

// Config holds all configuration options for rootscan.
// It is populated from defaults, the config file and CLI flags, and passed
// through the application rather than kept in global state.
type Config struct {
	// Lo and Hi bound the domain scanned for sign changes.
	Lo float64
	Hi float64

	// Step is the sampling step of the bracket scan.
	Step float64

	// Capacity is the maximum number of brackets kept per function.
	Capacity int

	// Tolerance is the convergence threshold of both solvers.
	Tolerance float64

	// MaxIterations caps every solve.
	MaxIterations int

	// Functions lists the function labels to process. Empty means all.
	Functions []string

	// Methods lists the solver names to run. Empty means all.
	Methods []string

	// OutputDir receives the error logs and plot files.
	OutputDir string

	// Trace enables the per-iteration error log.
	Trace bool

	// Concurrency is the number of functions solved at once.
	Concurrency int

	// SweepFrom and SweepTo are the exponents of the sweep tolerances.
	SweepFrom int
	SweepTo   int

	// Locale is the BCP 47 tag used to format console numbers.
	Locale string

	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Color enables coloured solve statuses in text reports.
	Color bool

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	MarkdownReport bool

	// ReportFile is the output file path for the report; empty means stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	// Defaults to XDG data directory (~/.local/share/rootscan on Linux).
	DBDir string

	// SaveToDB stores every run in the history database.
	SaveToDB bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .rootscan is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// File holds the loaded configuration file, if any.
	File *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Lo:            DefaultLo,
		Hi:            DefaultHi,
		Step:          DefaultStep,
		Capacity:      DefaultCapacity,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		OutputDir:     DefaultOutputDir,
		Trace:         true,
		Concurrency:   DefaultConcurrency,
		SweepFrom:     DefaultSweepFrom,
		SweepTo:       DefaultSweepTo,
		Locale:        DefaultLocale,
		LogFormat:     DefaultLogFormat,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for rootscan.
// On Linux: ~/.local/share/rootscan
// On macOS: ~/Library/Application Support/rootscan
// On Windows: %LOCALAPPDATA%\rootscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for rootscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one often makes others
// irrelevant.
func (c *Config) Validate() error {
	if !finite(c.Lo) || !finite(c.Hi) || c.Lo >= c.Hi {
		return ErrInvalidDomain
	}
	if !finite(c.Step) || c.Step <= 0 {
		return ErrInvalidStep
	}
	if n := (c.Hi - c.Lo) / c.Step; !finite(n) || n > bracket.MaxSegments {
		return ErrInvalidStep
	}
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if !finite(c.Tolerance) || c.Tolerance <= 0 {
		return ErrInvalidTolerance
	}
	if c.MaxIterations <= 0 || c.MaxIterations > solver.MaxIterationsLimit {
		return ErrInvalidMaxIterations
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.SweepFrom >= 0 || c.SweepTo > c.SweepFrom || c.SweepTo < model.MinToleranceExponent {
		return ErrInvalidSweepRange
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	if _, err := function.Resolve(c.Functions); err != nil {
		return err
	}
	if _, err := c.SolverMethods(); err != nil {
		return err
	}
	return nil
}

// LanguageTag parses Locale.
func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %v", ErrInvalidLocale, c.Locale, err)
	}
	return tag, nil
}

// SolverMethods parses Methods. Empty means every method.
func (c *Config) SolverMethods() ([]solver.Method, error) {
	if len(c.Methods) == 0 {
		return solver.Methods(), nil
	}
	out := make([]solver.Method, 0, len(c.Methods))
	seen := make(map[solver.Method]bool)
	for _, name := range c.Methods {
		m, err := solver.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

// Scanner builds the bracket scanner described by the configuration.
func (c *Config) Scanner() (*bracket.Scanner, error) {
	return bracket.NewScanner(
		bracket.WithDomain(c.Lo, c.Hi),
		bracket.WithStep(c.Step),
		bracket.WithCapacity(c.Capacity),
	)
}

// ReportFormat returns the selected report format name.
func (c *Config) ReportFormat() string {
	switch {
	case c.JSONReport:
		return "json"
	case c.MarkdownReport:
		return "markdown"
	default:
		return "text"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
