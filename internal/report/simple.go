package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/solver"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SimpleWriter outputs human-readable text reports.
//
// Numbers go through a golang.org/x/text printer so the decimal separator
// follows the configured locale. Colour is off by default so output can be
// piped to files.
type SimpleWriter struct {
	baseWriter

	// printer formats numbers for the configured locale.
	printer *message.Printer

	// colored enables ANSI colouring of solve statuses.
	colored bool

	// verbose adds the bracket list and failure messages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithLocale formats numbers for tag.
func WithLocale(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// WithColor enables coloured statuses.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colored = enabled
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "ROOTSCAN REPORT")
	sb.WriteString(fmt.Sprintf("Run ID:         %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Duration))
	s := report.Settings
	sb.WriteString(fmt.Sprintf("Domain:         [%s, %s] step %s\n", w.number(s.Lo), w.number(s.Hi), w.number(s.Step)))
	sb.WriteString(fmt.Sprintf("Tolerance:      %g (max %d iterations)\n", s.Tolerance, s.MaxIterations))
	sb.WriteString("\n")

	for _, fr := range report.Functions {
		if fr == nil {
			continue
		}
		w.writeFunction(&sb, fr)
	}

	w.writeSummary(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes a boxed title.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", (70-len(title))/2))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeSection writes a section title between rules.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFunction writes the brackets and solves of one function.
func (w *SimpleWriter) writeFunction(sb *strings.Builder, fr *model.FunctionReport) {
	title := fr.Function
	if fr.Formula != "" {
		title += ": " + fr.Formula
	}
	w.writeSection(sb, title)

	sb.WriteString(fmt.Sprintf("  Brackets: %d", len(fr.Intervals)))
	if fr.CapacityExceeded {
		sb.WriteString(" (capacity exceeded, list truncated)")
	}
	sb.WriteString("\n")
	if w.verbose {
		for i, iv := range fr.Intervals {
			sb.WriteString(fmt.Sprintf("    %-6s %s\n", fr.RootLabel(i), iv))
		}
	}
	if len(fr.Intervals) == 0 {
		sb.WriteString("  No sign change found in the domain\n")
	}
	sb.WriteString("\n")

	for _, s := range fr.Solves {
		sb.WriteString(fmt.Sprintf("  %-9s %-6s root %s  iterations %4d  error %s  %s\n",
			s.Method, s.Label,
			w.fixed(s.Result.Root), s.Result.Iterations,
			w.fixed(s.Result.Error), w.status(s.Result.Status),
		))
		if w.verbose && s.Error != "" {
			sb.WriteString(fmt.Sprintf("            %s\n", s.Error))
		}
	}

	switch {
	case fr.TimedOut:
		sb.WriteString("  Status: CANCELLED (partial results)\n")
	case fr.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("  Status: ERROR - %s\n", fr.ErrorMessage))
	}
	sb.WriteString("\n")
}

// writeSummary writes the solve counts per status.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	w.writeSection(sb, "SUMMARY")

	counts := report.StatusCounts()
	sb.WriteString(fmt.Sprintf("  Roots bracketed: %d\n", report.RootCount()))
	for _, st := range statuses() {
		if counts[st] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-22s %d\n", w.status(st)+":", counts[st]))
	}
	sb.WriteString("\n")
}

// WriteSweep outputs the sweep report as one row per sample.
func (w *SimpleWriter) WriteSweep(report *model.SweepReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "ROOTSCAN ACCURACY SWEEP")
	sb.WriteString(fmt.Sprintf("Sweep ID:       %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Tolerances:     %d\n", len(report.Tolerances)))
	sb.WriteString(fmt.Sprintf("Digest:         %s\n\n", report.Digest))

	for _, label := range report.Labels() {
		w.writeSection(&sb, label)
		sb.WriteString(fmt.Sprintf("  %-8s %-9s %-20s %s\n", "epsilon", "method", "error", "iterations"))
		for _, m := range solver.Methods() {
			for _, s := range report.Series(label, m) {
				sb.WriteString(fmt.Sprintf("  %-8.0e %-9s %-20s %d\n",
					s.Tolerance, m, w.fixed(s.Result.Error), s.Result.Iterations))
			}
		}
		sb.WriteString("\n")
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// fixed renders v with 15 decimals in the configured locale.
func (w *SimpleWriter) fixed(v float64) string {
	if !finite(v) {
		return fmt.Sprint(v)
	}
	return w.printer.Sprintf("%.15f", v)
}

// number renders v compactly in the configured locale.
func (w *SimpleWriter) number(v float64) string {
	if !finite(v) {
		return fmt.Sprint(v)
	}
	return w.printer.Sprint(v)
}

// status renders a solve status, coloured when enabled.
func (w *SimpleWriter) status(st solver.Status) string {
	text := strings.ToUpper(st.String())
	if !w.colored {
		return text
	}
	c := color.New(statusColor(st))
	c.EnableColor()
	return c.Sprint(text)
}

func statusColor(st solver.Status) color.Attribute {
	switch st {
	case solver.StatusConverged:
		return color.FgGreen
	case solver.StatusNonConvergence:
		return color.FgYellow
	case solver.StatusInapplicable:
		return color.FgCyan
	default:
		return color.FgRed
	}
}

// statuses lists every status in report order.
func statuses() []solver.Status {
	return []solver.Status{
		solver.StatusConverged,
		solver.StatusNonConvergence,
		solver.StatusDegenerateDerivative,
		solver.StatusInapplicable,
		solver.StatusAborted,
	}
}
