package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/nao1215/rootscan/internal/model"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Supported format names.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats returns the supported format names.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatMarkdown}
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a solve run report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)

	// WriteSweep outputs an accuracy sweep report.
	WriteSweep(report *model.SweepReport) (int, error)
}

// New returns the writer for format. Text writer options are applied only
// to the text format.
func New(format string, output io.Writer, opts ...SimpleWriterOption) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return NewSimpleWriter(output, opts...), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in turn.
// Our Writer interface writes reports, not raw bytes, so io.MultiWriter
// does not apply.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSweep outputs the sweep report to all configured Writers.
func (m *MultiWriter) WriteSweep(report *model.SweepReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSweep(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
