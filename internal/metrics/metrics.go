// Package metrics exposes collector counters to prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paywall_split"

// Metrics holds the collector's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	EventsAccepted  *prometheus.CounterVec
	EventsRejected  prometheus.Counter
	Notifications   *prometheus.CounterVec
	Webhooks        *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EventsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_accepted_total",
			Help:      "Events accepted by the collector, by type and variant.",
		}, []string{"type", "variant"}),

		EventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Events rejected by validation.",
		}),

		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Conversion notifications sent, by sink and outcome.",
		}, []string{"sink", "outcome"}),

		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Billing webhook deliveries, by event type and outcome.",
		}, []string{"type", "outcome"}),

		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method and status.",
		}, []string{"method", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time to handle an HTTP request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsAccepted,
		m.EventsRejected,
		m.Notifications,
		m.Webhooks,
		m.Requests,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EventAccepted(eventType, variant string) {
	m.EventsAccepted.WithLabelValues(eventType, variant).Inc()
}

func (m *Metrics) EventRejected() {
	m.EventsRejected.Inc()
}

// NotificationSent records the outcome of one sink delivery.
func (m *Metrics) NotificationSent(sink string, err error) {
	m.Notifications.WithLabelValues(sink, outcome(err)).Inc()
}

func (m *Metrics) WebhookProcessed(eventType string, err error) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.Webhooks.WithLabelValues(eventType, outcome(err)).Inc()
}

func (m *Metrics) RequestHandled(method string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
