package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trippeak/tourshop/internal/observability"
)

// instrument declares the label set and help text registered for each
// metric key the application emits.
type instrument struct {
	help    string
	labels  []string
	buckets []float64
}

var instruments = map[observability.MetricKey]instrument{
	observability.MUsecaseRequests: {
		help:   "Total number of use case invocations.",
		labels: []string{"use_case", "outcome"},
	},
	observability.MUsecaseDuration: {
		help:    "Duration of use case execution in seconds.",
		labels:  []string{"use_case"},
		buckets: prometheus.DefBuckets,
	},
	observability.MHTTPRequests: {
		help:   "Total number of HTTP requests served.",
		labels: []string{"method", "route", "status"},
	},
	observability.MHTTPRequestDuration: {
		help:    "Duration of HTTP request handling in seconds.",
		labels:  []string{"method", "route", "status"},
		buckets: prometheus.DefBuckets,
	},
	observability.MSettlementCredits: {
		help:   "Count of per-line wallet credit attempts during settlement.",
		labels: []string{"outcome"},
	},
	observability.MEventPublishErrors: {
		help:   "Count of event publish failures.",
		labels: []string{"event"},
	},
}

type provider struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	namespace  string
	counters   map[observability.MetricKey]*prometheus.CounterVec
	histograms map[observability.MetricKey]*prometheus.HistogramVec
}

// New returns an observability.Metrics backed by the given Prometheus
// registerer. Instruments are registered lazily, once per key.
func New(namespace string, registerer prometheus.Registerer) observability.Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &provider{
		registerer: registerer,
		namespace:  namespace,
		counters:   make(map[observability.MetricKey]*prometheus.CounterVec),
		histograms: make(map[observability.MetricKey]*prometheus.HistogramVec),
	}
}

func (p *provider) Counter(name observability.MetricKey) observability.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.counters[name]; ok {
		return &counter{v: v}
	}
	spec, ok := instruments[name]
	if !ok {
		return nopCounter{}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace, Name: string(name), Help: spec.help,
	}, spec.labels)
	p.registerer.MustRegister(cv)
	p.counters[name] = cv
	return &counter{v: cv}
}

func (p *provider) Histogram(name observability.MetricKey) observability.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.histograms[name]; ok {
		return &histogram{v: v}
	}
	spec, ok := instruments[name]
	if !ok {
		return nopHistogram{}
	}
	buckets := spec.buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.namespace, Name: string(name), Help: spec.help, Buckets: buckets,
	}, spec.labels)
	p.registerer.MustRegister(hv)
	p.histograms[name] = hv
	return &histogram{v: hv}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

type nopCounter struct{}

func (nopCounter) Add(float64, ...observability.Label) {}

type nopHistogram struct{}

func (nopHistogram) Observe(float64, ...observability.Label) {}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
