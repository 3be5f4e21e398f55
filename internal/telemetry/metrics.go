package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every metric named in spec.md §4.5, registered against a
// private Prometheus registry (never the global default — mirrors the
// teacher's per-service registry construction).
type Registry struct {
	reg *prometheus.Registry

	PostsFetchedTotal                  *prometheus.CounterVec
	PostsDeduplicatedTotal             prometheus.Counter
	PostsProcessedTotal                prometheus.Counter
	SentimentDistributionTotal         *prometheus.CounterVec
	SentimentAnalysisDuration          prometheus.Histogram
	SentimentBatchSize                 prometheus.Histogram
	PipelineTotalDuration              prometheus.Histogram
	ModelLoadDuration                  prometheus.Histogram
	PipelineErrorsTotal                *prometheus.CounterVec
	SourceErrorsTotal                  *prometheus.CounterVec
	PipelineStatus                     prometheus.Gauge
	PipelineLastSuccessfulRunTimestamp prometheus.Gauge
	MemoryUsageBytes                   prometheus.Gauge
	BuildInfo                          *prometheus.GaugeVec
}

// BuildMetadata carries the static version/commit/date labels for
// build_info.
type BuildMetadata struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewRegistry builds the ingestor's metrics registry with Go/process
// collectors plus every pipeline-specific metric, grounded on the
// teacher's core/telemetry.NewMetricsRegistry.
func NewRegistry(build BuildMetadata) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		PostsFetchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "posts_fetched_total",
			Help: "Submissions returned by the source client.",
		}, []string{"community"}),
		PostsDeduplicatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "posts_deduplicated_total",
			Help: "Submissions dropped as already seen.",
		}),
		PostsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "posts_processed_total",
			Help: "EnrichedRecords successfully written.",
		}),
		SentimentDistributionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "sentiment_distribution_total",
			Help: "Count of outputs per sentiment label.",
		}, []string{"label"}),
		SentimentAnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingestor", Name: "sentiment_analysis_duration_seconds",
			Help: "Per-batch classifier wall time.", Buckets: prometheus.DefBuckets,
		}),
		SentimentBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingestor", Name: "sentiment_batch_size",
			Help: "Batch sizes used by the classifier.", Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		PipelineTotalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingestor", Name: "pipeline_total_duration_seconds",
			Help: "End-to-end run wall time.", Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ModelLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingestor", Name: "model_load_duration_seconds",
			Help: "One-shot classifier construction time.", Buckets: prometheus.DefBuckets,
		}),
		PipelineErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "pipeline_errors_total",
			Help: "All errors, classified by component and kind.",
		}, []string{"component", "error_kind"}),
		SourceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor", Name: "source_errors_total",
			Help: "Source-client errors by kind.",
		}, []string{"error_kind"}),
		PipelineStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ingestor", Name: "pipeline_status",
			Help: "1 healthy, 0 unhealthy (latched on any fatal error during run).",
		}),
		PipelineLastSuccessfulRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ingestor", Name: "pipeline_last_successful_run_timestamp",
			Help: "Seconds since epoch of last success.",
		}),
		MemoryUsageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ingestor", Name: "memory_usage_bytes",
			Help: "Process resident memory at end of run.",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ingestor", Name: "build_info",
			Help: "Static build identification.",
		}, []string{"version", "commit", "build_date"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.PostsFetchedTotal,
		r.PostsDeduplicatedTotal,
		r.PostsProcessedTotal,
		r.SentimentDistributionTotal,
		r.SentimentAnalysisDuration,
		r.SentimentBatchSize,
		r.PipelineTotalDuration,
		r.ModelLoadDuration,
		r.PipelineErrorsTotal,
		r.SourceErrorsTotal,
		r.PipelineStatus,
		r.PipelineLastSuccessfulRunTimestamp,
		r.MemoryUsageBytes,
		r.BuildInfo,
	)
	r.BuildInfo.WithLabelValues(build.Version, build.Commit, build.BuildDate).Set(1)
	r.PipelineStatus.Set(1)

	return r
}

// Gatherer exposes the underlying registry for the scrape handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveBatch implements pkg/sentiment.Metrics: it records one classifier
// batch's size and wall time.
func (r *Registry) ObserveBatch(size int, d time.Duration) {
	r.SentimentBatchSize.Observe(float64(size))
	r.SentimentAnalysisDuration.Observe(d.Seconds())
}

// IncErrors implements pkg/sentiment.Metrics: a classifier-scoped error.
func (r *Registry) IncErrors(kind string) {
	r.PipelineErrorsTotal.WithLabelValues("classifier", kind).Inc()
}

// IncError is the general-purpose error counter used outside the
// sentiment package (source, dedup, sink, config components).
func (r *Registry) IncError(component, kind string) {
	r.PipelineErrorsTotal.WithLabelValues(component, kind).Inc()
	if component == "source" {
		r.SourceErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// IncPostsFetched records n submissions returned by the source client for
// community.
func (r *Registry) IncPostsFetched(community string, n int) {
	r.PostsFetchedTotal.WithLabelValues(community).Add(float64(n))
}

// IncPostsDeduplicated records one submission dropped as already seen.
func (r *Registry) IncPostsDeduplicated() {
	r.PostsDeduplicatedTotal.Inc()
}

// IncPostsProcessed records one EnrichedRecord successfully written.
func (r *Registry) IncPostsProcessed() {
	r.PostsProcessedTotal.Inc()
}

// IncSentimentLabel records one classifier output for label.
func (r *Registry) IncSentimentLabel(label string) {
	r.SentimentDistributionTotal.WithLabelValues(label).Inc()
}

// SetStatus latches pipeline_status: 1 healthy, 0 unhealthy.
func (r *Registry) SetStatus(healthy bool) {
	if healthy {
		r.PipelineStatus.Set(1)
	} else {
		r.PipelineStatus.Set(0)
	}
}

// SetLastSuccessfulRun records the Unix timestamp of the most recent
// successful run.
func (r *Registry) SetLastSuccessfulRun(unixSeconds int64) {
	r.PipelineLastSuccessfulRunTimestamp.Set(float64(unixSeconds))
}

// SetMemoryUsageBytes records the process's resident memory at run end.
func (r *Registry) SetMemoryUsageBytes(bytes uint64) {
	r.MemoryUsageBytes.Set(float64(bytes))
}

// ObserveTotalDuration records one run's end-to-end wall time.
func (r *Registry) ObserveTotalDuration(seconds float64) {
	r.PipelineTotalDuration.Observe(seconds)
}

// ObserveModelLoadDuration records the one-shot classifier construction
// time.
func (r *Registry) ObserveModelLoadDuration(seconds float64) {
	r.ModelLoadDuration.Observe(seconds)
}
