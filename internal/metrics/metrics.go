package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Fetch results.
const (
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// Fallback reasons.
const (
	ReasonHardCoded    = "hard_coded"
	ReasonStale        = "stale"
	ReasonStoreError   = "store_error"
	ReasonDecodeFailed = "decode_failed"
)

// Metrics wraps the registry's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal          *prometheus.CounterVec
	fallbackTotal       *prometheus.CounterVec
	decodeFailuresTotal *prometheus.CounterVec
}

// New creates collectors under namespace on a private registry, together with
// the Go and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Upstream registry fetches by outcome",
			},
			[]string{"network", "kind", "result"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_total",
				Help:      "Requests served from stale or hard-coded data",
			},
			[]string{"network", "kind", "reason"},
		),
		decodeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_failures_total",
				Help:      "Cached documents that no longer match the typed schema",
			},
			[]string{"network", "kind"},
		),
	}
	reg.MustRegister(m.fetchTotal, m.fallbackTotal, m.decodeFailuresTotal)
	return m
}

func (m *Metrics) Fetch(network, kind, result string) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(network, kind, result).Inc()
}

func (m *Metrics) Fallback(network, kind, reason string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(network, kind, reason).Inc()
}

func (m *Metrics) DecodeFailure(network, kind string) {
	if m == nil {
		return
	}
	m.decodeFailuresTotal.WithLabelValues(network, kind).Inc()
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FetchCount returns the current value of one fetch counter.
func (m *Metrics) FetchCount(network, kind, result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.fetchTotal.WithLabelValues(network, kind, result))
}

// FallbackCount returns the current value of one fallback counter.
func (m *Metrics) FallbackCount(network, kind, reason string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.fallbackTotal.WithLabelValues(network, kind, reason))
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}
