package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Lookup outcomes recorded by RecordLookup.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	companyLookups   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	suggestQueries   *prometheus.CounterVec
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

	// Business metrics
	r.companyLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockanalyzer_company_lookups_total",
			Help: "Total number of company info lookups by outcome",
		},
		[]string{"outcome"},
	)
	r.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockanalyzer_upstream_request_duration_seconds",
			Help:    "Upstream provider request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "endpoint"},
	)
	r.suggestQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockanalyzer_suggestion_queries_total",
			Help: "Total number of search suggestion queries",
		},
		[]string{"matched"},
	)

	reg.MustRegister(r.companyLookups)
	reg.MustRegister(r.upstreamDuration)
	reg.MustRegister(r.suggestQueries)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordLookup records a completed company info lookup.
func (r *Registry) RecordLookup(outcome string) {
	r.companyLookups.WithLabelValues(outcome).Inc()
}

// RecordUpstream records the duration of one upstream provider call.
func (r *Registry) RecordUpstream(provider, endpoint string, duration float64) {
	r.upstreamDuration.WithLabelValues(provider, endpoint).Observe(duration)
}

// RecordSuggestion records a suggestion query and whether it matched anything.
func (r *Registry) RecordSuggestion(matched bool) {
	label := "false"
	if matched {
		label = "true"
	}
	r.suggestQueries.WithLabelValues(label).Inc()
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
