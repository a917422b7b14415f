// Package metrics holds the Prometheus collectors of the bot.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "villa_bot"

type Metrics struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	generations     *prometheus.CounterVec
	enhance         *prometheus.CounterVec
	synthesizeTime  prometheus.Histogram
	probes          *prometheus.CounterVec
	handlerFailures prometheus.Counter
}

// New registers every collector on a fresh registry, so tests can create as many as they like.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound UI events by kind.",
		}, []string{"kind"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed generate actions by outcome.",
		}, []string{"outcome"}),
		enhance: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhance_total",
			Help:      "Prompt enhancement calls by status (ok, fallback, disabled).",
		}, []string{"status"}),
		synthesizeTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesize_duration_seconds",
			Help:      "Duration of image synthesis requests.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 180},
		}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_total",
			Help:      "Generation backend availability probes by result.",
		}, []string{"online"}),
		handlerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "Updates whose handler returned an error.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) Generation(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Enhance(status string) {
	if m == nil {
		return
	}
	m.enhance.WithLabelValues(status).Inc()
}

func (m *Metrics) Synthesize(d time.Duration) {
	if m == nil {
		return
	}
	m.synthesizeTime.Observe(d.Seconds())
}

func (m *Metrics) Probe(online bool) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(strconv.FormatBool(online)).Inc()
}

func (m *Metrics) HandlerFailure() {
	if m == nil {
		return
	}
	m.handlerFailures.Inc()
}
