// Package metrics exposes Prometheus instrumentation for indicator
// computation, the ranking cache and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for duration histograms, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.registry = reg
		}
	}
}

type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	computations        *prometheus.CounterVec
	computationDuration *prometheus.HistogramVec
	cohortSize          *prometheus.GaugeVec
	eventsFetched       *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New creates a Recorder. Without WithRegistry a private registry is used so
// that tests can build several recorders side by side.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "indicators",
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(r.registry)
	r.computations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "computations_total",
		Help:      "Indicator computations by family, view and result",
	}, []string{"family", "view", "result"})
	r.computationDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "computation_duration_seconds",
		Help:      "Wall time of one indicator computation pass",
		Buckets:   r.buckets,
	}, []string{"family", "view"})
	r.cohortSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "cohort_size",
		Help:      "Size of the last evaluated cohort",
	}, []string{"family"})
	r.eventsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "events_fetched_total",
		Help:      "Clinical events loaded from the store by kind",
	}, []string{"kind"})
	r.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "ranking_cache_lookups_total",
		Help:      "Ranking cache lookups by result (hit, miss, error)",
	}, []string{"result"})
	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})
	r.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   r.buckets,
	}, []string{"route", "method"})
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveComputation records one list or ranking computation.
func (r *Recorder) ObserveComputation(family, view string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.computations.WithLabelValues(family, view, result).Inc()
	r.computationDuration.WithLabelValues(family, view).Observe(d.Seconds())
}

func (r *Recorder) SetCohortSize(family string, n int) {
	r.cohortSize.WithLabelValues(family).Set(float64(n))
}

func (r *Recorder) AddEventsFetched(kind string, n int) {
	r.eventsFetched.WithLabelValues(kind).Add(float64(n))
}

// CacheLookup records a ranking cache lookup; result is hit, miss or error.
func (r *Recorder) CacheLookup(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// pattern, so path parameters do not explode label cardinality.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
