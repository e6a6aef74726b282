// Package telemetry defines the Prometheus collectors for index routing and
// the legacy adapter.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "indexwrap"

// Route establishment outcomes.
const (
	OutcomeDelegate = "delegate"
	OutcomeLegacy   = "legacy"
	OutcomeNoRoute  = "no_route"
	OutcomeError    = "error"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RouteEstablishTotal   *prometheus.CounterVec
	RouteDispatchTotal    *prometheus.CounterVec
	RouteCacheSize        prometheus.Gauge
	LegacyMutationsTotal  *prometheus.CounterVec
	LegacyOnlineIndexes   prometheus.Gauge
	CatalogNameCacheTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RouteEstablishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "establish_total",
			Help:      "Route establishments by outcome (delegate, legacy, no_route, error).",
		}, []string{"outcome"}),
		RouteDispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "dispatch_total",
			Help:      "Per-index operations dispatched by operation and target kind.",
		}, []string{"op", "target"}),
		RouteCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "cache_entries",
			Help:      "Number of established routes.",
		}),
		LegacyMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "legacy",
			Name:      "mutations_total",
			Help:      "Mutation records applied to legacy indexes by mode.",
		}, []string{"mode"}),
		LegacyOnlineIndexes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "legacy",
			Name:      "online_indexes",
			Help:      "Legacy adapters that completed population.",
		}),
		CatalogNameCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "name_cache_total",
			Help:      "Catalog name lookups by result (hit, miss).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RouteEstablishTotal,
			m.RouteDispatchTotal,
			m.RouteCacheSize,
			m.LegacyMutationsTotal,
			m.LegacyOnlineIndexes,
			m.CatalogNameCacheTotal,
		)
	}
	return m
}

// RouteEstablished counts one establishment attempt.
func (m *Metrics) RouteEstablished(outcome string) {
	if m == nil {
		return
	}
	m.RouteEstablishTotal.WithLabelValues(outcome).Inc()
}

// Dispatched counts one facade operation routed to target ("delegate", "legacy" or "fallback").
func (m *Metrics) Dispatched(op, target string) {
	if m == nil {
		return
	}
	m.RouteDispatchTotal.WithLabelValues(op, target).Inc()
}

// SetRouteCacheSize records the number of cached routes.
func (m *Metrics) SetRouteCacheSize(n int) {
	if m == nil {
		return
	}
	m.RouteCacheSize.Set(float64(n))
}

// Mutation counts one applied legacy mutation.
func (m *Metrics) Mutation(mode string) {
	if m == nil {
		return
	}
	m.LegacyMutationsTotal.WithLabelValues(mode).Inc()
}

// LegacyOnline records a legacy adapter moving online.
func (m *Metrics) LegacyOnline() {
	if m == nil {
		return
	}
	m.LegacyOnlineIndexes.Inc()
}

// LegacyOffline records an online legacy adapter being cleared for repopulation.
func (m *Metrics) LegacyOffline() {
	if m == nil {
		return
	}
	m.LegacyOnlineIndexes.Dec()
}

// NameLookup counts a catalog name cache hit or miss.
func (m *Metrics) NameLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CatalogNameCacheTotal.WithLabelValues(result).Inc()
}
