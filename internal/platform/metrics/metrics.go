// Package metrics registers the gateway's Prometheus collectors and exposes
// the scrape endpoint.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters the gateway records on every request. A
// fresh registry per instance keeps tests independent of global state.
type Metrics struct {
	registry *prometheus.Registry

	// Decisions counts routing outcomes, labeled allow/redirect and, for
	// redirects, the destination.
	Decisions *prometheus.CounterVec

	// Resolutions counts identity resolution outcomes: authenticated,
	// anonymous, rotated.
	Resolutions *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_decisions_total",
			Help: "Routing policy decisions by outcome and redirect target.",
		}, []string{"outcome", "target"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_resolutions_total",
			Help: "Identity resolution outcomes.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.Decisions, m.Resolutions)
	return m
}

// Handler serves the Prometheus scrape endpoint for this instance's
// registry.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
