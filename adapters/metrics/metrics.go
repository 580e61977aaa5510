// Package metrics provides Prometheus metrics for configuration loading.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hookflow/hookflow/config"
)

// Collector holds the Prometheus metrics published by the loader.
type Collector struct {
	Loads      prometheus.Counter
	LoadErrors prometheus.Counter
	LastLoad   prometheus.Gauge

	// DirectiveInstances records how many instances of each directive type
	// the active configuration carries.
	DirectiveInstances *prometheus.GaugeVec

	// ArenaBytes is the interned string storage of the active configuration.
	ArenaBytes prometheus.Gauge
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector on a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Loads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hookflow",
				Name:      "config_loads_total",
				Help:      "Total number of successful configuration loads",
			},
		),
		LoadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hookflow",
				Name:      "config_load_errors_total",
				Help:      "Total number of configuration load errors",
			},
		),
		LastLoad: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "hookflow",
				Name:      "config_last_load_timestamp",
				Help:      "Unix timestamp of the last successful configuration load",
			},
		),
		DirectiveInstances: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hookflow",
				Name:      "config_directive_instances",
				Help:      "Directive instance counts in the active configuration",
			},
			[]string{"directive"},
		),
		ArenaBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "hookflow",
				Name:      "config_arena_bytes",
				Help:      "Interned string bytes held by the active configuration",
			},
		),
	}
}

// ObserveLoad records a successful load of cfg as the active configuration.
func (c *Collector) ObserveLoad(cfg *config.Config) {
	c.Loads.Inc()
	c.LastLoad.Set(float64(time.Now().Unix()))
	c.DirectiveInstances.Reset()
	for name, count := range cfg.DirectiveCounts() {
		c.DirectiveInstances.WithLabelValues(name).Set(float64(count))
	}
	c.ArenaBytes.Set(float64(cfg.Arena().Bytes()))
}

// ObserveLoadError records a failed load attempt.
func (c *Collector) ObserveLoadError() {
	c.LoadErrors.Inc()
}
