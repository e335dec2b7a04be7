// Package metrics exposes Prometheus metrics derived from the auth event
// stream.
package metrics

import (
	"context"
	"sync"

	authflow "github.com/goliatone/go-authflow"
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets covers interactive sign-in flows, from a fast password
// check to a slow federated round trip.
var LatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
)

// Collector counts auth events and measures attempt latency from the
// Started event to the terminal event of the same attempt.
type Collector struct {
	events   *prometheus.CounterVec
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge

	mu      sync.Mutex
	started map[string]authflow.AuthEvent
}

var (
	_ prometheus.Collector  = (*Collector)(nil)
	_ authflow.ActivitySink = (*Collector)(nil)
)

// NewCollector creates a collector whose metric names are prefixed with
// namespace. An empty namespace defaults to "authflow".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "authflow"
	}

	return &Collector{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Auth events by kind and method",
			},
			[]string{"kind", "method"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Completed attempts by operation, method and outcome",
			},
			[]string{"operation", "method", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Time from attempt start to its terminal event",
				Buckets:   LatencyBuckets,
			},
			[]string{"operation", "method", "outcome"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "attempts_in_flight",
				Help:      "Attempts started and not yet terminated",
			},
		),
		started: make(map[string]authflow.AuthEvent),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.events.Describe(ch)
	c.attempts.Describe(ch)
	c.latency.Describe(ch)
	c.inflight.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.events.Collect(ch)
	c.attempts.Collect(ch)
	c.latency.Collect(ch)
	c.inflight.Collect(ch)
}

// Record implements authflow.ActivitySink.
func (c *Collector) Record(_ context.Context, event authflow.AuthEvent) error {
	c.Observe(event)
	return nil
}

// Observe updates the metrics for one event.
func (c *Collector) Observe(event authflow.AuthEvent) {
	method := methodLabel(event.Method)
	c.events.WithLabelValues(string(event.Kind), method).Inc()

	switch {
	case event.IsStarted():
		c.mu.Lock()
		c.started[event.AttemptID] = event
		c.inflight.Set(float64(len(c.started)))
		c.mu.Unlock()

	case event.IsTerminal():
		outcome := outcomeSucceeded
		if event.Failed() {
			outcome = outcomeFailed
		}
		op := string(event.Kind.Operation())
		c.attempts.WithLabelValues(op, method, outcome).Inc()

		c.mu.Lock()
		start, ok := c.started[event.AttemptID]
		if ok {
			delete(c.started, event.AttemptID)
			c.inflight.Set(float64(len(c.started)))
		}
		c.mu.Unlock()

		if ok {
			elapsed := event.OccurredAt.Sub(start.OccurredAt)
			if elapsed < 0 {
				elapsed = 0
			}
			c.latency.WithLabelValues(op, method, outcome).Observe(elapsed.Seconds())
		}
	}
}

// Run feeds the collector from bus until the bus closes or ctx is done.
func (c *Collector) Run(ctx context.Context, bus *authflow.EventBus, logger authflow.Logger) error {
	return authflow.RelayActivity(ctx, bus, c, logger)
}

func methodLabel(m authflow.AuthMethod) string {
	if m.IsZero() {
		return "none"
	}
	return m.String()
}
