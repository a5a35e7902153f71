package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/nao1215/rootscan/internal/solver"
)

// Log file names used inside the output directory.
const (
	// TraceFile receives one record per solver iteration.
	TraceFile = "iteration_error_analysis.txt"

	// AccuracyFile receives one record per solve of the accuracy sweep.
	AccuracyFile = "accuracy_error_analysis.txt"
)

// ErrSinkUnavailable is returned when a log cannot be opened or written.
var ErrSinkUnavailable = errors.New("log sink unavailable")

// ErrMalformedRecord is returned by Parse for lines that do not follow the
// record format.
var ErrMalformedRecord = errors.New("malformed error record")

// Record is a single error sample.
type Record struct {
	// Function is the function label, e.g. "f1" or "f3_2".
	Function string

	// Method is the method label, "Newton" or "Bisection".
	Method string

	// Error is the sampled error magnitude.
	Error float64
}

// String formats the record as a log line without the trailing newline.
func (r Record) String() string {
	return fmt.Sprintf("%s:%s:%.15f", r.Function, r.Method, r.Error)
}

// Parse decodes one log line produced by Record.String.
func Parse(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	// Labels never contain ':' but the value may be "NaN" or "+Inf".
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedRecord, line)
	}
	v, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q: %v", ErrMalformedRecord, line, err)
	}
	return Record{Function: parts[0], Method: parts[1], Error: v}, nil
}

// ReadAll parses every non-empty line of r.
func ReadAll(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := Parse(line)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// Recorder is a sink for error records.
type Recorder interface {
	// Record appends rec to the sink. Errors wrap ErrSinkUnavailable.
	Record(rec Record) error
}

// Nop discards every record.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Record) error { return nil }

// WriterRecorder writes records to an io.Writer.
type WriterRecorder struct {
	mu    sync.Mutex
	w     io.Writer
	count int
}

// NewWriter returns a Recorder that writes to w.
func NewWriter(w io.Writer) *WriterRecorder {
	return &WriterRecorder{w: w}
}

// Record implements Recorder.
func (r *WriterRecorder) Record(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.w, rec.String()+"\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	r.count++
	return nil
}

// Count returns the number of records written so far.
func (r *WriterRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Multi returns a Recorder that passes every record to each of recs in
// order and stops at the first failure.
func Multi(recs ...Recorder) Recorder {
	return multi(recs)
}

type multi []Recorder

func (m multi) Record(rec Record) error {
	for _, r := range m {
		if err := r.Record(rec); err != nil {
			return err
		}
	}
	return nil
}

// FileRecorder is a WriterRecorder backed by a file it owns.
type FileRecorder struct {
	*WriterRecorder
	file *os.File
	path string
}

// Open truncates (or creates) the log at path and returns a recorder that
// appends to it. A log that cannot be opened yields ErrSinkUnavailable;
// callers treat this as fatal because later records would be lost.
func Open(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // log files are meant to be shared
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, path, err)
	}
	return &FileRecorder{
		WriterRecorder: NewWriter(f),
		file:           f,
		path:           path,
	}, nil
}

// Path returns the log file path.
func (r *FileRecorder) Path() string {
	return r.path
}

// Close flushes and closes the log file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, r.path, err)
	}
	return nil
}

// StepHook adapts rec into a solver.Options.OnStep hook that records every
// iteration's error under the given function label.
func StepHook(rec Recorder, label string) func(solver.Step) error {
	if rec == nil {
		return nil
	}
	return func(s solver.Step) error {
		return rec.Record(Record{Function: label, Method: s.Method.String(), Error: s.Error})
	}
}

// FinalRecord builds the accuracy-mode record for a finished solve. Failed
// solves whose error is unknown are recorded as NaN.
func FinalRecord(label string, method solver.Method, res solver.Result) Record {
	e := res.Error
	if res.Status == solver.StatusInapplicable || res.Status == solver.StatusDegenerateDerivative {
		e = math.NaN()
	}
	return Record{Function: label, Method: method.String(), Error: e}
}
