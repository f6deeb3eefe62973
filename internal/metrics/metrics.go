// Package metrics exports dispatch counters and fleet gauges to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukydev/logiroute/internal/fleet"
)

const namespace = "logiroute"

// Snapshotter is the read side of the fleet store.
type Snapshotter interface {
	Snapshot() fleet.State
}

// Metrics implements fleet.Listener and serves its own registry.
type Metrics struct {
	registry *prom.Registry
	applied  *prom.CounterVec
	rejected *prom.CounterVec
}

// New registers the counters and gauges. Gauges are computed at scrape time
// from the store.
func New(store Snapshotter) *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		applied: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "actions_applied_total",
			Help: "Actions applied to the fleet state, cascades included",
		}, []string{"kind"}),
		rejected: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "actions_rejected_total",
			Help: "Top-level actions rejected by validation",
		}, []string{"kind", "reason"}),
	}

	gauge := func(name, help string, value func(fleet.Summary) int) prom.GaugeFunc {
		return prom.NewGaugeFunc(prom.GaugeOpts{Namespace: namespace, Name: name, Help: help}, func() float64 {
			return float64(value(fleet.Summarize(store.Snapshot())))
		})
	}

	m.registry.MustRegister(m.applied, m.rejected)
	m.registry.MustRegister(
		gauge("vehicles_total", "Vehicles in the fleet", func(s fleet.Summary) int { return s.TotalVehicles }),
		gauge("vehicles_available", "Vehicles whose status is available", func(s fleet.Summary) int { return s.AvailableVehicles }),
		gauge("deliveries_active", "Deliveries not yet delivered", func(s fleet.Summary) int { return s.ActiveDeliveries }),
		prom.NewGaugeFunc(prom.GaugeOpts{Namespace: namespace, Name: "vehicles_assignable", Help: "Vehicles that can take a new delivery"}, func() float64 {
			return float64(len(fleet.AvailableVehicles(store.Snapshot())))
		}),
	)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Applied counts every applied action by kind.
func (m *Metrics) Applied(_ context.Context, _ fleet.Action, applied []fleet.Action) {
	for _, a := range applied {
		m.applied.WithLabelValues(a.Kind()).Inc()
	}
}

// Rejected counts a rejected action by kind and reason.
func (m *Metrics) Rejected(_ context.Context, root fleet.Action, err error) {
	m.rejected.WithLabelValues(root.Kind(), reason(err)).Inc()
}

func reason(err error) string {
	switch {
	case errors.Is(err, fleet.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, fleet.ErrVehicleUnavailable):
		return "vehicle_unavailable"
	case errors.Is(err, fleet.ErrUnknownStatus):
		return "unknown_status"
	case errors.Is(err, fleet.ErrInvalidFuel):
		return "invalid_fuel"
	case errors.Is(err, fleet.ErrCascadeLimit):
		return "cascade_limit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
