// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package metrics holds prometheus metric objects for the router core.
// It does not abstract away the prometheus client; callers reach for the
// package-level vars directly and register them once via Register.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace scopes every metric name below, prepended and separated with
// an underscore.
const Namespace = "gwcore"

var (
	// FibEntryCount is the number of FIB entries currently published,
	// labeled by vrf and address family.
	FibEntryCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "fib",
		Name:      "entries",
		Help:      "Number of FIB entries currently published, by vrf and family.",
	}, []string{"vrf", "family"})

	// FibGroupCount is the number of distinct FibGroups (ECMP sets)
	// currently published, labeled by vrf and address family.
	FibGroupCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "fib",
		Name:      "groups",
		Help:      "Number of FIB groups currently published, by vrf and family.",
	}, []string{"vrf", "family"})

	// NatRangeCount is the number of compiled NAT ranges currently
	// published, labeled by vni and direction ("dst"/"src").
	NatRangeCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "nat",
		Name:      "ranges",
		Help:      "Number of compiled NAT ranges currently published, by vni and direction.",
	}, []string{"vni", "direction"})

	// FlowTableDepth is the number of live entries tracked per flow-table
	// shard.
	FlowTableDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "flowtable",
		Name:      "depth",
		Help:      "Number of live flow-table entries, by shard.",
	}, []string{"shard"})

	// FlowTableReapsTotal counts reaped flow-table entries, labeled by
	// shard and outcome ("expired"/"updated").
	FlowTableReapsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "flowtable",
		Name:      "reaps_total",
		Help:      "Total flow-table reap decisions, by shard and outcome.",
	}, []string{"shard", "outcome"})

	// PublicationLatency observes the time between a Writer.Publish call
	// being issued and the previous-generation copy becoming safe to
	// reuse (the left-right reclaim delay), labeled by published table.
	PublicationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "lrpub",
		Name:      "publication_latency_seconds",
		Help:      "Time from Publish to safe reclaim of the previous generation, by table.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table"})

	// ConfigureTotal counts control-loop Configure calls, labeled by
	// outcome ("ok"/"rejected").
	ConfigureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "control",
		Name:      "configure_total",
		Help:      "Total Configure calls, by outcome.",
	}, []string{"outcome"})

	// CpiEventsTotal counts CPI events applied to the router, labeled by
	// kind ("route"/"rmac") and outcome ("applied"/"rejected").
	CpiEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "control",
		Name:      "cpi_events_total",
		Help:      "Total CPI events applied to the router, by kind and outcome.",
	}, []string{"kind", "outcome"})
)

// allCollectors lists every metric this package registers.
var allCollectors = []prometheus.Collector{
	FibEntryCount,
	FibGroupCount,
	NatRangeCount,
	FlowTableDepth,
	FlowTableReapsTotal,
	PublicationLatency,
	ConfigureTotal,
	CpiEventsTotal,
}

// Register registers every metric in this package with reg. Callers pick
// the registry (gwcored's serve command passes its own
// prometheus.NewRegistry, tests pass a private one) rather than this
// package reaching for a global implicitly; the HTTP handler and registry
// wiring live outside this package.
func Register(reg prometheus.Registerer) error {
	for _, c := range allCollectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
