// Package metrics provides Prometheus metrics for the film decode service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the decode pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline throughput
	chunksDecoded      *prometheus.CounterVec
	chunksRejected     *prometheus.CounterVec
	candidatesScanned  prometheus.Counter
	candidatesRejected *prometheus.CounterVec
	ambiguousProfiles  prometheus.Counter
	eventsNormalized   *prometheus.CounterVec
	eventsRejected     *prometheus.CounterVec
	pairsEmitted       prometheus.Counter
	unpairedKills      prometheus.Counter

	// Reconstruction quality
	validationMismatches prometheus.Counter
	matchesDecoded       prometheus.Counter
	matchesEmpty         prometheus.Counter
	decodeLatency        prometheus.Histogram

	// Name recovery cache
	nameCacheHits   prometheus.Counter
	nameCacheMisses prometheus.Counter

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueues           prometheus.Counter
	queueDequeues           prometheus.Counter
	queueEnqueueErrors      *prometheus.CounterVec
	workerActive            prometheus.Gauge
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram
}

// Global manager on a custom registry, so the default Go collectors do not
// pollute the scrape.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Registry returns the registry backing the global manager, for exposing a
// /metrics handler.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "filmdec",
		subsystem:        "decode",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.chunksDecoded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_decoded_total",
		Help:      "Chunks successfully decompressed, by declared type",
	}, []string{"chunk_type"})

	m.chunksRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_rejected_total",
		Help:      "Chunks rejected before scanning, by reason",
	}, []string{"reason"})

	m.candidatesScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scanned_total",
		Help:      "Candidate record windows located by the marker scan",
	})

	m.candidatesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_rejected_total",
		Help:      "Candidate windows discarded during profile trial, by reason",
	}, []string{"reason"})

	m.ambiguousProfiles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ambiguous_profiles_total",
		Help:      "Candidates where multiple offset profiles decoded plausible but differing timestamps",
	})

	m.eventsNormalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_normalized_total",
		Help:      "Raw events accepted by the normalizer, by event type",
	}, []string{"event_type"})

	m.eventsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Raw events dropped by the normalizer, by reason",
	}, []string{"reason"})

	m.pairsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_emitted_total",
		Help:      "Killer-victim pairs emitted by the pairing engine",
	})

	m.unpairedKills = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unpaired_kills_total",
		Help:      "Kill events dropped because no death record matched within tolerance",
	})

	m.validationMismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_mismatches_total",
		Help:      "Participants whose reconstructed totals disagreed with authoritative totals",
	})

	m.matchesDecoded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_decoded_total",
		Help:      "Matches whose decode pipeline ran to completion",
	})

	m.matchesEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_empty_total",
		Help:      "Matches with no reconstructable events",
	})

	m.decodeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_decode_latency_milliseconds",
		Help:      "End-to-end per-match decode latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.nameCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "name_cache_hits_total",
		Help:      "Display-name sanitizer cache hits",
	})

	m.nameCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "name_cache_misses_total",
		Help:      "Display-name sanitizer cache misses",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued match jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured match-job queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue size over capacity",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Match jobs accepted by the queue",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Match jobs handed to workers",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Match jobs the queue refused, by reason",
	}, []string{"reason"})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of running decode workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Decode jobs that failed in a worker",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Per-job worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers against the global manager.

func RecordChunkDecoded(chunkType string) {
	globalManager.chunksDecoded.WithLabelValues(chunkType).Inc()
}

func RecordChunkRejected(reason string) {
	globalManager.chunksRejected.WithLabelValues(reason).Inc()
}

func RecordCandidatesScanned(n int) {
	globalManager.candidatesScanned.Add(float64(n))
}

func RecordCandidateRejected(reason string) {
	globalManager.candidatesRejected.WithLabelValues(reason).Inc()
}

func RecordAmbiguousProfile() {
	globalManager.ambiguousProfiles.Inc()
}

func RecordEventNormalized(eventType string) {
	globalManager.eventsNormalized.WithLabelValues(eventType).Inc()
}

func RecordEventRejected(reason string) {
	globalManager.eventsRejected.WithLabelValues(reason).Inc()
}

func RecordPairEmitted() {
	globalManager.pairsEmitted.Inc()
}

func RecordUnpairedKill() {
	globalManager.unpairedKills.Inc()
}

func RecordValidationMismatch() {
	globalManager.validationMismatches.Inc()
}

func RecordMatchDecoded() {
	globalManager.matchesDecoded.Inc()
}

func RecordMatchEmpty() {
	globalManager.matchesEmpty.Inc()
}

func RecordDecodeLatency(latencyMS float64) {
	globalManager.decodeLatency.Observe(latencyMS)
}

func RecordNameCacheHit() {
	globalManager.nameCacheHits.Inc()
}

func RecordNameCacheMiss() {
	globalManager.nameCacheMisses.Inc()
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

func RecordWorkerProcessingLatency(latencyMS float64) {
	globalManager.workerProcessingLatency.Observe(latencyMS)
}
