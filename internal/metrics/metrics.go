package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
)

type Provider interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncRatings(result string)
	IncVerificationTransition(from, to domain.VerificationStatus)
	SetChannelsListed(count int)
	IncStorageErrors(op string)
	// Handler serves the metrics in the Prometheus text format.
	Handler() http.Handler
}

// SessionCounter reports the number of live user sessions.
type SessionCounter interface {
	Len() int
}

type prometheusProvider struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	ratings         *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	channelsListed  prometheus.Gauge
	storageErrors   *prometheus.CounterVec
}

// New returns a Prometheus-backed provider, or a no-op one when disabled.
// Each provider owns its registry so several can coexist in tests.
func New(enabled bool, sessions SessionCounter) Provider {
	if !enabled {
		return Noop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &prometheusProvider{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minichannels_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minichannels_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "minichannels_view_cache_hits_total",
			Help: "Channel view cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "minichannels_view_cache_misses_total",
			Help: "Channel view cache misses",
		}),

		ratings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minichannels_ratings_total",
			Help: "Rating attempts by result",
		}, []string{"result"}),

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minichannels_verification_transitions_total",
			Help: "Verification state transitions",
		}, []string{"from", "to"}),

		channelsListed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "minichannels_channels_listed",
			Help: "Channels produced by the last aggregation pass",
		}),

		storageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minichannels_storage_errors_total",
			Help: "Durable storage failures by operation",
		}, []string{"op"}),
	}

	if sessions != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "minichannels_sessions",
			Help: "Live user sessions",
		}, func() float64 {
			return float64(sessions.Len())
		})
	}

	return m
}

func (m *prometheusProvider) IncRequestsTotal(route string, status int) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
}

func (m *prometheusProvider) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *prometheusProvider) IncCacheHits()   { m.cacheHits.Inc() }
func (m *prometheusProvider) IncCacheMisses() { m.cacheMisses.Inc() }

func (m *prometheusProvider) IncRatings(result string) {
	m.ratings.WithLabelValues(result).Inc()
}

func (m *prometheusProvider) IncVerificationTransition(from, to domain.VerificationStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *prometheusProvider) SetChannelsListed(count int) {
	m.channelsListed.Set(float64(count))
}

func (m *prometheusProvider) IncStorageErrors(op string) {
	m.storageErrors.WithLabelValues(op).Inc()
}

func (m *prometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop returns a provider that records nothing.
func Noop() Provider { return noopMetrics{} }

type noopMetrics struct{}

func (noopMetrics) IncRequestsTotal(_ string, _ int)                         {}
func (noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)         {}
func (noopMetrics) IncCacheHits()                                            {}
func (noopMetrics) IncCacheMisses()                                          {}
func (noopMetrics) IncRatings(_ string)                                      {}
func (noopMetrics) IncVerificationTransition(_, _ domain.VerificationStatus) {}
func (noopMetrics) SetChannelsListed(_ int)                                  {}
func (noopMetrics) IncStorageErrors(_ string)                                {}
func (noopMetrics) Handler() http.Handler                                    { return http.NotFoundHandler() }
