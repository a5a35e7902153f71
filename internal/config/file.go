package config

import (
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/plot"
)

// PlotConfig overrides the display range of the plot data for a function.
// Zero fields keep the built-in range.
type PlotConfig struct {
	Lo   float64 `yaml:"lo,omitempty"`
	Hi   float64 `yaml:"hi,omitempty"`
	Step float64 `yaml:"step,omitempty"`
}

// SweepConfig holds the tolerance exponents of the accuracy sweep.
type SweepConfig struct {
	From *int `yaml:"from,omitempty"`
	To   *int `yaml:"to,omitempty"`
}

// File represents the structure of the .rootscan configuration file.
// Pointer fields distinguish "not set" from an explicit zero.
type File struct {
	Lo            *float64 `yaml:"lo,omitempty"`
	Hi            *float64 `yaml:"hi,omitempty"`
	Step          *float64 `yaml:"step,omitempty"`
	Capacity      *int     `yaml:"capacity,omitempty"`
	Tolerance     *float64 `yaml:"tolerance,omitempty"`
	MaxIterations *int     `yaml:"maxIterations,omitempty"`

	// Functions and Methods restrict what is solved.
	Functions []string `yaml:"functions,omitempty"`
	Methods   []string `yaml:"methods,omitempty"`

	OutputDir   string `yaml:"outputDir,omitempty"`
	Trace       *bool  `yaml:"trace,omitempty"`
	Concurrency *int   `yaml:"concurrency,omitempty"`

	Sweep SweepConfig `yaml:"sweep,omitempty"`

	Locale    string `yaml:"locale,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty"`

	// Report is "text", "json" or "markdown".
	Report string `yaml:"report,omitempty"`

	DBDir    string `yaml:"dbDir,omitempty"`
	SaveToDB *bool  `yaml:"saveToDB,omitempty"`

	// Plot is applied to every function unless overridden in Plots.
	Plot PlotConfig `yaml:"plot,omitempty"`

	// Plots maps function labels to their plot configuration.
	Plots map[string]PlotConfig `yaml:"plots,omitempty"`
}

// Apply copies every value set in the file into c.
func (f *File) Apply(c *Config) {
	setFloat(&c.Lo, f.Lo)
	setFloat(&c.Hi, f.Hi)
	setFloat(&c.Step, f.Step)
	setInt(&c.Capacity, f.Capacity)
	setFloat(&c.Tolerance, f.Tolerance)
	setInt(&c.MaxIterations, f.MaxIterations)
	setInt(&c.Concurrency, f.Concurrency)
	setInt(&c.SweepFrom, f.Sweep.From)
	setInt(&c.SweepTo, f.Sweep.To)

	if len(f.Functions) > 0 {
		c.Functions = append([]string(nil), f.Functions...)
	}
	if len(f.Methods) > 0 {
		c.Methods = append([]string(nil), f.Methods...)
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.Trace != nil {
		c.Trace = *f.Trace
	}
	if f.Locale != "" {
		c.Locale = f.Locale
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	switch f.Report {
	case "json":
		c.JSONReport, c.MarkdownReport = true, false
	case "markdown", "md":
		c.JSONReport, c.MarkdownReport = false, true
	case "text":
		c.JSONReport, c.MarkdownReport = false, false
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if f.SaveToDB != nil {
		c.SaveToDB = *f.SaveToDB
	}
	c.File = f
}

// PlotRange returns the plot range for fn: the built-in range overridden by
// the file-wide plot settings and then by the function's own entry.
func (f *File) PlotRange(fn function.Function) plot.Range {
	r := plot.DefaultRange(fn)
	if f == nil {
		return r
	}
	merge := func(pc PlotConfig) {
		if pc.Lo != 0 {
			r.Lo = pc.Lo
		}
		if pc.Hi != 0 {
			r.Hi = pc.Hi
		}
		if pc.Step != 0 {
			r.Step = pc.Step
		}
	}
	merge(f.Plot)
	if pc, ok := f.Plots[fn.Label()]; ok {
		merge(pc)
	}
	return r
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
