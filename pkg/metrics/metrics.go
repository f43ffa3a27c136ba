// Package metrics exports userboard telemetry as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RefreshDurationEvent carries the refresh latency in its "seconds" field.
const RefreshDurationEvent = "userboard.refresh.duration"

// Telemetry counts every recorded event and observes refresh latency.
type Telemetry struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	refresh  *prometheus.HistogramVec
}

// New registers the userboard collectors on a private registry.
func New(namespace string) *Telemetry {
	if namespace == "" {
		namespace = "userboard"
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Telemetry{
		registry: registry,
		events: factory.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "events_total", Help: "Total number of userboard telemetry events."},
			[]string{"event"},
		),
		refresh: factory.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "refresh_duration_seconds", Help: "Latency of user list refreshes in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"demo"},
		),
	}
}

// Record implements the userboard Telemetry interface.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.events.WithLabelValues(event).Inc()
	if event != RefreshDurationEvent {
		return
	}
	seconds, ok := payload["seconds"].(float64)
	if !ok {
		return
	}
	demo, _ := payload["demo"].(bool)
	t.refresh.WithLabelValues(strconv.FormatBool(demo)).Observe(seconds)
}

// Registry exposes the underlying registry for extra collectors.
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}

