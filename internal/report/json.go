package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/rootscan/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Non-finite solver values are encoded as strings by solver.Result.
type JSONWriter struct {
	baseWriter

	// indent is the per-level indentation; empty writes compact JSON.
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values by indent per level.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report as one JSON document.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.encode(report)
}

// WriteSweep outputs the sweep report as one JSON document.
func (w *JSONWriter) WriteSweep(report *model.SweepReport) (int, error) {
	return w.encode(report)
}

// encode buffers the whole document so a marshalling failure writes
// nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}
	return w.output.Write(buf.Bytes())
}
