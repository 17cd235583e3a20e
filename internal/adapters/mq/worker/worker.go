// Package worker runs the per-match decode pipeline off the job queue.
//
// Matches are embarrassingly parallel: each job touches no shared mutable
// state, so concurrency is bounded only to bound memory. Within one job the
// pipeline is a strict sequential computation; a worker executes it
// synchronously and hands the result to the sink.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/strafelab/filmdec/internal/adapters/mq/queue"
	"github.com/strafelab/filmdec/internal/adapters/sink"
	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/pkg/logger"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Pool shutdown allowance; covers draining one in-flight decode per worker.
const poolShutdownTimeout = 30 * time.Second

// Decoder runs the full pipeline for one match.
type Decoder interface {
	DecodeMatch(ctx context.Context, job model.MatchJob) (model.MatchResult, error)
}

// JobSource defines how workers receive jobs.
type JobSource interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes match jobs until stopped.
type Worker struct {
	source  JobSource
	decoder Decoder
	out     sink.Sink
	name    string

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// New creates a worker with configuration options.
func New(source JobSource, decoder Decoder, out sink.Sink, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		decoder:  decoder,
		out:      out,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logger.Get().Named(w.name)
	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				metrics.RecordWorkerError()
				w.log.Error(ctx, "decode job failed",
					logger.String("job_id", job.JobID),
					logger.String("match_id", job.MatchID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process decodes one match and writes the result. A failed decode of one
// match never aborts processing of others; the error is logged by Run.
func (w *Worker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	result, err := w.decoder.DecodeMatch(ctx, job)
	if err != nil {
		return fmt.Errorf("decode match %s: %w", job.MatchID, err)
	}
	if err := w.out.Write(ctx, result); err != nil {
		return fmt.Errorf("write result for match %s: %w", job.MatchID, err)
	}
	return nil
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers []*Worker

	log logger.Logger
}

// NewPool creates a pool of count workers; a non-positive count defaults to
// the CPU count.
func NewPool(count int, source JobSource, decoder Decoder, out sink.Sink) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, count),
		log:     logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = New(source, decoder, out, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(count)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the job source if it supports closing, then waits for
// every worker to drain or the timeout to pass.
func (p *Pool) Shutdown(ctx context.Context) error {
	if len(p.workers) == 0 {
		return nil
	}
	if closer, ok := p.workers[0].source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.log.Error(ctx, "error closing job source", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.log.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}

// Wait blocks until every worker has finished, typically after the queue
// has been closed and drained.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
