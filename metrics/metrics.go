// Package metrics exposes Prometheus counters for authentication and task activity.
package metrics

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/biosecret/go-tasks/models"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry     *prometheus.Registry
	TaskEvents   *prometheus.CounterVec
	AuthAttempts *prometheus.CounterVec
	Responses    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TaskEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasks",
			Name:      "events_total",
			Help:      "Committed task changes by event type.",
		}, []string{"type"}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasks",
			Name:      "auth_attempts_total",
			Help:      "Login and token validation attempts by outcome.",
		}, []string{"kind", "result"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasks",
			Name:      "http_responses_total",
			Help:      "HTTP responses by status code.",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(
		m.TaskEvents,
		m.AuthAttempts,
		m.Responses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Publish counts a task event. It satisfies tasks.Publisher.
func (m *Metrics) Publish(_ context.Context, ev models.TaskEvent) {
	m.TaskEvents.WithLabelValues(ev.Type).Inc()
}

// Auth records an authentication outcome; kind is "login" or "token".
func (m *Metrics) Auth(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.AuthAttempts.WithLabelValues(kind, result).Inc()
}

// TrackStreams exposes count as the number of open task event streams.
func (m *Metrics) TrackStreams(count func() int) error {
	return m.Registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tasks",
		Name:      "event_streams",
		Help:      "Open server-sent event streams.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
