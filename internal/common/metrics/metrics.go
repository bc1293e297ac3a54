// Package metrics holds the service's prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	SessionsActive prometheus.Gauge
	Gestures       *prometheus.CounterVec
	ShapesCreated  *prometheus.CounterVec
	Calibrations   *prometheus.CounterVec
	Exports        *prometheus.CounterVec
	ExportDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_sessions_active",
			Help: "Editor sessions currently open",
		}),
		Gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_gestures_total",
			Help: "Completed pointer gestures by kind",
		}, []string{"kind"}),
		ShapesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_shapes_created_total",
			Help: "Shapes committed from drafts by type",
		}, []string{"type"}),
		Calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_calibrations_total",
			Help: "Calibration attempts by result",
		}, []string{"result"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_exports_total",
			Help: "PNG exports by result",
		}, []string{"result"}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_export_duration_seconds",
			Help:    "Time spent compositing and encoding an export",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.SessionsActive,
		m.Gestures,
		m.ShapesCreated,
		m.Calibrations,
		m.Exports,
		m.ExportDuration,
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
