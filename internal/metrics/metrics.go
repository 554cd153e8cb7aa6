// Package metrics exposes Prometheus counters for the cross-service paths:
// existence checks, rating event publishing and consumption, HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const defaultNamespace = "hr"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	namespace string
	buckets   []float64
	gatherer  prometheus.Gatherer

	existenceChecks  *prometheus.CounterVec
	existenceLatency *prometheus.HistogramVec
	ratingPublished  *prometheus.CounterVec
	ratingConsumed   *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

type Option func(*Recorder)

func WithNamespace(ns string) Option {
	return func(r *Recorder) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// New registers all collectors on reg. Passing a *prometheus.Registry also
// makes Handler serve it.
func New(reg prometheus.Registerer, opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}
	for _, opt := range opts {
		opt(r)
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}

	f := promauto.With(reg)

	r.existenceChecks = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rpc",
		Name:      "existence_checks_total",
		Help:      "Existence checks by entity kind and outcome (present, absent, indeterminate).",
	}, []string{"kind", "outcome"})

	r.existenceLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "rpc",
		Name:      "existence_check_duration_seconds",
		Help:      "Wall time of existence checks including retries.",
		Buckets:   r.buckets,
	}, []string{"kind"})

	r.ratingPublished = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rating",
		Name:      "events_published_total",
		Help:      "Rating events handed to the broker, by result.",
	}, []string{"result"})

	r.ratingConsumed = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rating",
		Name:      "events_consumed_total",
		Help:      "Rating event processing attempts, by outcome.",
	}, []string{"outcome"})

	r.httpRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	return r
}

// NewIsolated builds a Recorder on its own registry; used by tests and tools.
func NewIsolated() *Recorder {
	return New(prometheus.NewRegistry())
}

func (r *Recorder) ObserveExistence(kind, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.existenceChecks.WithLabelValues(kind, outcome).Inc()
	r.existenceLatency.WithLabelValues(kind).Observe(took.Seconds())
}

func (r *Recorder) RatingPublished(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.ratingPublished.WithLabelValues(result).Inc()
}

func (r *Recorder) RatingConsumed(outcome string) {
	if r == nil {
		return
	}
	r.ratingConsumed.WithLabelValues(outcome).Inc()
}

func (r *Recorder) HTTPRequest(method string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Gatherer returns the registry collectors were registered on, if it gathers.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil || r.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return r.gatherer
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{}))
}
