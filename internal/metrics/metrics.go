package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics. Recording methods are safe on a nil
// *Registry so components can run without metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Acquisition metrics
	providerCalls     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	rateLimitWaits    *prometheus.CounterVec
	rateLimitWaitTime *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
	resolutions       *prometheus.CounterVec
	pipelineRuns      *prometheus.CounterVec
	pipelineDuration  prometheus.Histogram
	stageFailures     *prometheus.CounterVec
	warmupRuns        *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_provider_calls_total",
			Help: "Total number of provider adapter calls",
		},
		[]string{"provider", "operation", "result"},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_cache_lookups_total",
			Help: "Cache lookups by data category and result",
		},
		[]string{"category", "result"},
	)
	r.rateLimitWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_ratelimit_waits_total",
			Help: "Calls that had to wait out the minimum interval",
		},
		[]string{"provider"},
	)
	r.rateLimitWaitTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockscan_ratelimit_wait_seconds",
			Help:    "Time spent waiting for the minimum interval",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"provider"},
	)
	r.rateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_ratelimit_rejections_total",
			Help: "Calls skipped because the daily cap was reached",
		},
		[]string{"provider"},
	)
	r.resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_resolutions_total",
			Help: "Identifier resolutions by source",
		},
		[]string{"source"},
	)
	r.pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_pipeline_runs_total",
			Help: "Completed pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	r.pipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockscan_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.stageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_stage_failures_total",
			Help: "Non-fatal pipeline stage failures",
		},
		[]string{"stage"},
	)
	r.warmupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscan_warmup_runs_total",
			Help: "Scheduled cache warm-up runs by status",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.providerCalls)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.rateLimitWaits)
	reg.MustRegister(r.rateLimitWaitTime)
	reg.MustRegister(r.rateLimitRejected)
	reg.MustRegister(r.resolutions)
	reg.MustRegister(r.pipelineRuns)
	reg.MustRegister(r.pipelineDuration)
	reg.MustRegister(r.stageFailures)
	reg.MustRegister(r.warmupRuns)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	if r == nil {
		return
	}
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Dec()
}

// RecordProviderCall records one adapter operation. result is "ok", "empty" or "skipped".
func (r *Registry) RecordProviderCall(provider, operation, result string) {
	if r == nil {
		return
	}
	r.providerCalls.WithLabelValues(provider, operation, result).Inc()
}

// RecordCacheLookup records a cache hit or miss for a data category.
func (r *Registry) RecordCacheLookup(category string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(category, result).Inc()
}

// RecordRateLimitWait records a paced call and how long it waited.
func (r *Registry) RecordRateLimitWait(provider string, seconds float64) {
	if r == nil {
		return
	}
	r.rateLimitWaits.WithLabelValues(provider).Inc()
	r.rateLimitWaitTime.WithLabelValues(provider).Observe(seconds)
}

// RecordRateLimitRejection records a call skipped on the daily cap.
func (r *Registry) RecordRateLimitRejection(provider string) {
	if r == nil {
		return
	}
	r.rateLimitRejected.WithLabelValues(provider).Inc()
}

// RecordResolution records where an identifier resolution came from.
func (r *Registry) RecordResolution(source string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(source).Inc()
}

// RecordPipelineRun records a finished pipeline run.
func (r *Registry) RecordPipelineRun(outcome string, duration float64) {
	if r == nil {
		return
	}
	r.pipelineRuns.WithLabelValues(outcome).Inc()
	r.pipelineDuration.Observe(duration)
}

// RecordStageFailure records a non-fatal stage failure.
func (r *Registry) RecordStageFailure(stage string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(stage).Inc()
}

// RecordWarmup records a warm-up run.
func (r *Registry) RecordWarmup(status string) {
	if r == nil {
		return
	}
	r.warmupRuns.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
