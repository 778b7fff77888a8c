// Package metrics exposes Prometheus collectors for the collective: hook
// event counts derived from the NDJSON event log, and experiment
// observations counted directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude-collective/collective/pkg/hooks"
)

// Metrics bundles the collective's directly incremented collectors.
type Metrics struct {
	observations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collective",
			Subsystem: "experiments",
			Name:      "observations_total",
			Help:      "Experiment observations recorded, by experiment and variant.",
		}, []string{"experiment", "variant"}),
	}

	reg.MustRegister(m.observations)
	return m
}

// RecordObservation counts a recorded experiment observation.
func (m *Metrics) RecordObservation(experimentID, variantID string) {
	m.observations.WithLabelValues(experimentID, variantID).Inc()
}

// EventLogCollector derives hook counters from the NDJSON event log at scrape
// time. Hook invocations are short-lived processes that cannot hold counters
// in memory, so they persist rows to the log and the long-lived server reads
// them back here.
type EventLogCollector struct {
	log      *hooks.EventLog
	events   *prometheus.Desc
	blocks   *prometheus.Desc
	handoffs *prometheus.Desc
}

// NewEventLogCollector creates a collector over log.
func NewEventLogCollector(log *hooks.EventLog) *EventLogCollector {
	return &EventLogCollector{
		log: log,
		events: prometheus.NewDesc(
			prometheus.BuildFQName("collective", "hooks", "events_total"),
			"Hook events recorded, by event.",
			[]string{"event"}, nil,
		),
		blocks: prometheus.NewDesc(
			prometheus.BuildFQName("collective", "hooks", "blocks_total"),
			"Hook decisions that blocked the host action, by event and handler.",
			[]string{"event", "handler"}, nil,
		),
		handoffs: prometheus.NewDesc(
			prometheus.BuildFQName("collective", "routing", "handoffs_total"),
			"Validated ROUTE TO handoffs, by target agent.",
			[]string{"target"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *EventLogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.blocks
	ch <- c.handoffs
}

// Collect implements prometheus.Collector. An unreadable log yields no
// samples rather than failing the scrape.
func (c *EventLogCollector) Collect(ch chan<- prometheus.Metric) {
	records, err := c.log.Read()
	if err != nil {
		return
	}

	type blockKey struct{ event, handler string }
	events := make(map[string]float64)
	blocks := make(map[blockKey]float64)
	handoffs := make(map[string]float64)

	for _, rec := range records {
		events[string(rec.Event)]++
		if rec.Blocked {
			blocks[blockKey{string(rec.Event), rec.Handler}]++
		}
		if rec.Target != "" {
			handoffs[rec.Target]++
		}
	}

	for event, n := range events {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, n, event)
	}
	for k, n := range blocks {
		ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.CounterValue, n, k.event, k.handler)
	}
	for target, n := range handoffs {
		ch <- prometheus.MustNewConstMetric(c.handoffs, prometheus.CounterValue, n, target)
	}
}
