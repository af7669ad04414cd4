package bindkit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// treeMetrics holds the per-scope-tree collectors. A nil *treeMetrics keeps
// every recording method a no-op, so call sites never branch on whether
// metrics are configured.
type treeMetrics struct {
	resolutions     *prometheus.CounterVec
	bindings        prometheus.Counter
	singletonBuilds prometheus.Counter
	jitSyntheses    prometheus.Counter
	cyclesProxied   prometheus.Counter
	bansActive      prometheus.Gauge
}

// newTreeMetrics registers the tree's collectors on reg. Every collector
// carries the tree's id as a constant label so separate trees can share one
// registry without colliding.
func newTreeMetrics(reg prometheus.Registerer, treeID string) *treeMetrics {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"tree": treeID}
	factory := promauto.With(reg)
	return &treeMetrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "bindkit_resolutions_total",
			Help:        "Total number of top-level resolution calls, by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		bindings: factory.NewCounter(prometheus.CounterOpts{
			Name:        "bindkit_bindings_registered_total",
			Help:        "Total number of explicit bindings registered",
			ConstLabels: labels,
		}),
		singletonBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name:        "bindkit_singleton_builds_total",
			Help:        "Total number of singleton instances constructed",
			ConstLabels: labels,
		}),
		jitSyntheses: factory.NewCounter(prometheus.CounterOpts{
			Name:        "bindkit_jit_bindings_synthesized_total",
			Help:        "Total number of just-in-time bindings synthesized",
			ConstLabels: labels,
		}),
		cyclesProxied: factory.NewCounter(prometheus.CounterOpts{
			Name:        "bindkit_cycles_proxied_total",
			Help:        "Total number of construction cycles broken with a deferred handle",
			ConstLabels: labels,
		}),
		bansActive: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "bindkit_bans_active",
			Help:        "Current number of banned-key entries across the scope tree",
			ConstLabels: labels,
		}),
	}
}

func (m *treeMetrics) resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *treeMetrics) bindingRegistered() {
	if m == nil {
		return
	}
	m.bindings.Inc()
}

func (m *treeMetrics) singletonBuilt() {
	if m == nil {
		return
	}
	m.singletonBuilds.Inc()
}

func (m *treeMetrics) jitSynthesized() {
	if m == nil {
		return
	}
	m.jitSyntheses.Inc()
}

func (m *treeMetrics) cycleProxied() {
	if m == nil {
		return
	}
	m.cyclesProxied.Inc()
}

func (m *treeMetrics) banAdded() {
	if m == nil {
		return
	}
	m.bansActive.Inc()
}

func (m *treeMetrics) banEvicted() {
	if m == nil {
		return
	}
	m.bansActive.Dec()
}
