package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the ingestion pipeline
type Metrics struct {
	registry *prometheus.Registry

	// Watch metrics
	FilesQueued  prometheus.Counter
	FilesIgnored prometheus.Counter
	QueueDepth   prometheus.Gauge

	// Pipeline metrics
	FilesProcessed *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	Fragments      prometheus.Counter
	TranscriptSize prometheus.Histogram

	// Delivery metrics
	Deliveries *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FilesQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxdrop_files_queued_total",
			Help: "Total number of files handed to the arrival queue",
		}),
		FilesIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxdrop_files_ignored_total",
			Help: "Total number of created files rejected by the format gate",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxdrop_queue_depth",
			Help: "Current number of files waiting for the worker",
		}),

		FilesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxdrop_files_processed_total",
			Help: "Total number of files processed, by result and failing stage",
		}, []string{"result", "stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxdrop_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, []string{"stage"}),
		Fragments: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxdrop_recognition_fragments_total",
			Help: "Total number of completed utterances returned by the recognizer",
		}),
		TranscriptSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxdrop_transcript_chars",
			Help:    "Length of assembled transcripts in characters",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10), // 16 to ~8k chars
		}),

		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxdrop_deliveries_total",
			Help: "Total number of delivery attempts, by result",
		}, []string{"result"}),
	}
}

// Registry exposes the private registry for the HTTP handler and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordQueued increments the queued counter and refreshes the depth gauge
func (m *Metrics) RecordQueued(depth int) {
	m.FilesQueued.Inc()
	m.QueueDepth.Set(float64(depth))
}

// RecordIgnored increments the ignored counter
func (m *Metrics) RecordIgnored() {
	m.FilesIgnored.Inc()
}

// SetQueueDepth sets the current queue depth
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// ObserveStage records how long one pipeline stage took
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordFragments adds completed utterances
func (m *Metrics) RecordFragments(n int) {
	m.Fragments.Add(float64(n))
}

// RecordTranscript records the assembled transcript length
func (m *Metrics) RecordTranscript(chars int) {
	m.TranscriptSize.Observe(float64(chars))
}

// RecordSuccess counts a fully processed file
func (m *Metrics) RecordSuccess() {
	m.FilesProcessed.WithLabelValues("success", "").Inc()
}

// RecordFailure counts a file that failed at stage
func (m *Metrics) RecordFailure(stage string) {
	m.FilesProcessed.WithLabelValues("failed", stage).Inc()
}

// RecordDelivery counts a delivery attempt
func (m *Metrics) RecordDelivery(ok bool) {
	if ok {
		m.Deliveries.WithLabelValues("success").Inc()
		return
	}
	m.Deliveries.WithLabelValues("failed").Inc()
}
