package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/recorder"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency keeps the trace log in function order.
const DefaultConcurrency = 1

// BatchProcessor runs a pipeline over several functions.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: A failing solve is not a batch failure. Only errors that
// make later output meaningless (an unwritable log, cancellation) stop the
// batch.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each function.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of functions processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent functions.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// fatal reports whether err must stop the whole batch.
func fatal(err error) bool {
	return errors.Is(err, recorder.ErrSinkUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ProcessBatch runs the pipeline on every function. Reports are returned in
// the order of fns, including reports of functions that failed. Functions
// never started because of cancellation have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, fns []function.Function) ([]*model.FunctionReport, error) {
	results := make([]*model.FunctionReport, len(fns))
	err := bp.ProcessBatchWithCallback(ctx, fns, func(report *model.FunctionReport, index int) {
		bp.mu.Lock()
		results[index] = report
		bp.mu.Unlock()
	})
	return results, err
}

// ProcessBatchWithCallback runs the pipeline on every function and calls
// callback with each finished report and the index of its function. The
// callback is called from worker goroutines when concurrency is above one.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	fns []function.Function,
	callback func(report *model.FunctionReport, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total_functions", len(fns),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, fn := range fns {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewFunctionReport(fn)
			err := bp.pipelineFactory().Execute(ctx, fn, report)
			callback(report, i)

			if err != nil {
				if fatal(err) {
					return err
				}
				bp.logger.Warn("function failed",
					"function", fn.Label(),
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch processing complete",
		"total_functions", len(fns),
		"elapsed", time.Since(startTime),
	)
	return err
}
