package schemastore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	fetches         *prometheus.CounterVec
	cacheHits       prometheus.Counter
	parseFailures   prometheus.Counter
	resolveFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tomlkit",
			Subsystem: "schemastore",
			Name:      "fetches_total",
			Help:      "Schema documents fetched, by scheme and result.",
		}, []string{"scheme", "result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tomlkit",
			Subsystem: "schemastore",
			Name:      "cache_hits_total",
			Help:      "Remote schema documents served from the disk cache.",
		}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tomlkit",
			Subsystem: "schemastore",
			Name:      "parse_failures_total",
			Help:      "Schema documents that could not be parsed.",
		}),
		resolveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tomlkit",
			Subsystem: "schemastore",
			Name:      "resolve_failures_total",
			Help:      "Schema references that could not be resolved during a traversal.",
		}),
	}
	if reg == nil {
		return m
	}
	m.fetches = register(reg, m.fetches)
	m.cacheHits = register(reg, m.cacheHits)
	m.parseFailures = register(reg, m.parseFailures)
	m.resolveFailures = register(reg, m.resolveFailures)
	return m
}

// register registers c, or returns the collector already registered under
// the same description so that several stores can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	log().Warn("metrics not registered", "error", err)
	return c
}
