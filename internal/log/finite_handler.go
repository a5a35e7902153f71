package log

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strconv"
)

// Log output formats accepted by NewLogger.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// FiniteHandler wraps an slog.Handler and replaces non-finite float64
// attribute values with their string form.
type FiniteHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler
}

// NewFiniteHandler creates a new FiniteHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewFiniteHandler(handler slog.Handler) *FiniteHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &FiniteHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *FiniteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *FiniteHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *FiniteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = rewriteAttr(a)
	}
	return &FiniteHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *FiniteHandler) WithGroup(name string) slog.Handler {
	return &FiniteHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr rewrites a single attribute, recursing into groups.
func rewriteAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			rewritten[i] = rewriteAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	case slog.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return slog.String(a.Key, strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// NewLogger creates the application logger.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//   - format: FormatJSON for JSON lines, anything else for text
func NewLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewFiniteHandler(handler))
}
