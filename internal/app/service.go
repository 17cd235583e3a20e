// Package app wires the decode pipeline together and exposes it behind a
// worker pool.
package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strafelab/filmdec/internal/adapters/blob"
	"github.com/strafelab/filmdec/internal/adapters/mq/queue"
	"github.com/strafelab/filmdec/internal/adapters/mq/worker"
	"github.com/strafelab/filmdec/internal/adapters/sink"
	"github.com/strafelab/filmdec/internal/domain/chunk"
	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/normalize"
	"github.com/strafelab/filmdec/internal/domain/pairing"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/domain/sanitize"
	"github.com/strafelab/filmdec/internal/domain/validate"
	"github.com/strafelab/filmdec/pkg/logger"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Service runs the classify, decompress, scan, decode, normalize, pair,
// validate pipeline per match. Matches are independent; concurrency
// is provided by the worker pool, and each DecodeMatch call is a
// synchronous, stateless computation over in-memory buffers.
type Service struct {
	mu sync.RWMutex

	fetcher blob.Fetcher
	out     sink.Sink

	decompressor *chunk.Decompressor
	extractor    *record.Extractor
	normalizer   *normalize.Normalizer
	pairer       *pairing.Engine
	preference   []model.ChunkType

	jobQueue *queue.InMemoryQueue
	pool     *worker.Pool

	workerCount   int
	queueSize     int
	toleranceMS   uint32
	minNameLength int
	nameCacheSize int
	inflateLimit  int64

	started bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the chunk byte source.
func WithFetcher(f blob.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithSink sets where match results are written.
func WithSink(out sink.Sink) Option {
	return func(s *Service) {
		if out != nil {
			s.out = out
		}
	}
}

// WithWorkerCount bounds concurrent match decodes.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the match-job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTolerance sets the pairing tolerance in milliseconds.
func WithTolerance(ms uint32) Option {
	return func(s *Service) {
		s.toleranceMS = ms
	}
}

// WithMinNameLength sets the minimum accepted display-name length.
func WithMinNameLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minNameLength = n
		}
	}
}

// WithNameCacheSize sets the sanitizer cache size.
func WithNameCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.nameCacheSize = n
		}
	}
}

// WithChunkPreference sets the chunk-type decode order.
func WithChunkPreference(pref []model.ChunkType) Option {
	return func(s *Service) {
		if len(pref) > 0 {
			s.preference = pref
		}
	}
}

// WithInflateLimit caps a single decompressed payload.
func WithInflateLimit(limit int64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.inflateLimit = limit
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   4,
		queueSize:     1024,
		toleranceMS:   pairing.DefaultToleranceMS,
		minNameLength: 3,
		nameCacheSize: 4096,
		preference:    chunk.DefaultPreference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline components and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}

	var chunkOpts []chunk.Option
	if s.inflateLimit > 0 {
		chunkOpts = append(chunkOpts, chunk.WithInflateLimit(s.inflateLimit))
	}
	s.decompressor = chunk.NewDecompressor(chunkOpts...)
	s.extractor = record.NewExtractor(record.NewScanner())
	s.normalizer = normalize.New(
		normalize.WithSanitizer(sanitize.New(
			sanitize.WithMinLength(s.minNameLength),
			sanitize.WithCacheSize(s.nameCacheSize),
		)),
	)
	s.pairer = pairing.New(pairing.WithTolerance(s.toleranceMS))

	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobQueue, s, s.out)
	s.pool.Start(ctx)

	s.started = true
	s.log.Info(ctx, "decode service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Uint32("tolerance_ms", s.toleranceMS),
	)
	return nil
}

// EnqueueMatch submits a match for asynchronous decoding. A job without an
// id gets one assigned. Returns false when the queue refuses the job.
func (s *Service) EnqueueMatch(ctx context.Context, job model.MatchJob) bool {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	return s.jobQueue.Enqueue(ctx, job)
}

// Drain closes the queue and waits for in-flight decodes to finish.
func (s *Service) Drain(ctx context.Context) error {
	_ = s.jobQueue.Close()
	return s.pool.Wait(ctx)
}

// Stop shuts the service down.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.log.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.started = false
	s.log.Info(ctx, "decode service stopped")
}

// QueueLen returns the number of pending jobs.
func (s *Service) QueueLen(ctx context.Context) int {
	return s.jobQueue.Len(ctx)
}

// DecodeMatch runs the full pipeline for one match. Structural problems in
// the telemetry are recovered locally: a malformed chunk falls back to the
// next preferred chunk type, and a match with nothing decodable yields an
// empty result with NoRecords set rather than an error. The error return is
// reserved for the caller's own context cancellation.
func (s *Service) DecodeMatch(ctx context.Context, job model.MatchJob) (model.MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDecodeLatency(float64(time.Since(start).Milliseconds()))
	}()

	result := model.MatchResult{MatchID: job.MatchID}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	bounds := record.Bounds{DurationMS: job.DurationMS, ToleranceMS: s.toleranceMS}

	raws, sawChunk := s.extractRaw(ctx, job, bounds)
	events := s.normalizer.NormalizeAll(raws, bounds)
	sort.SliceStable(events, func(i, j int) bool { return events[i].TimeMS < events[j].TimeMS })

	if len(events) == 0 {
		// "No reconstructable events" is a distinct outcome from a match
		// that has zero kills; only the former sets NoRecords.
		result.NoRecords = true
		metrics.RecordMatchEmpty()
		if !sawChunk {
			s.log.Warn(ctx, "no decodable chunks for match", logger.String("match_id", job.MatchID))
		}
		return result, nil
	}

	pairs := s.pairer.Pair(job.MatchID, events)
	pairs, discrepancies := validate.Apply(pairs, job.Totals)

	result.Events = events
	result.Pairs = pairs
	result.Discrepancies = discrepancies
	metrics.RecordMatchDecoded()

	if discrepancies > 0 {
		s.log.Warn(ctx, "reconstructed totals disagree with authoritative totals",
			logger.String("match_id", job.MatchID),
			logger.Int("participants", discrepancies),
		)
	}
	return result, nil
}

// extractRaw decodes raw events from the first preferred chunk type that
// yields at least one decompressable chunk. The boolean reports whether any
// chunk decompressed at all.
func (s *Service) extractRaw(ctx context.Context, job model.MatchJob, bounds record.Bounds) ([]model.RawEvent, bool) {
	for _, want := range s.preference {
		entries := chunk.Classify(job.Manifest, []model.ChunkType{want})
		if len(entries) == 0 {
			continue
		}

		var raws []model.RawEvent
		decodedAny := false
		for _, e := range entries {
			raw, err := s.fetcher.Fetch(ctx, e.BlobRef)
			if err != nil {
				metrics.RecordChunkRejected("fetch_failed")
				s.log.Warn(ctx, "chunk fetch failed",
					logger.String("match_id", job.MatchID),
					logger.String("blob_ref", e.BlobRef),
					logger.Error(err),
				)
				continue
			}
			payload, err := s.decompressor.Decompress(raw)
			if err != nil {
				metrics.RecordChunkRejected("malformed")
				s.log.Warn(ctx, "malformed chunk",
					logger.String("match_id", job.MatchID),
					logger.String("chunk_type", want.String()),
					logger.Error(err),
				)
				continue
			}
			metrics.RecordChunkDecoded(want.String())
			decodedAny = true

			evs, err := s.extractor.Extract(ctx, payload, want, bounds)
			if err != nil {
				if errors.Is(err, record.ErrNoRecognizedRecords) {
					s.log.Info(ctx, "no recognized records in chunk",
						logger.String("match_id", job.MatchID),
						logger.String("chunk_type", want.String()),
					)
					continue
				}
				continue
			}
			raws = append(raws, evs...)
		}

		// Once a chunk of this type decompressed, do not fall through to a
		// lower preference: weapon ids only exist on summary records, and
		// mixing types would double-count events.
		if decodedAny {
			return raws, true
		}
	}
	return nil, false
}
