package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records round, agent and retry metrics on a private registry so
// several collectors can live in one process (one per round in tests).
type Collector struct {
	registry *prometheus.Registry

	roundsTotal   *prometheus.CounterVec
	roundDuration prometheus.Histogram
	agentCalls    *prometheus.CounterVec
	agentDuration *prometheus.HistogramVec
	retriesTotal  *prometheus.CounterVec
	votesTotal    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	fairnessGauge prometheus.Gauge
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.roundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Rounds completed, by outcome",
		},
		[]string{"outcome"}, // outcome: ok, degraded, failed
	)

	c.roundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall time of a full round",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	c.agentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_calls_total",
			Help:      "Agent invocations, by role and status",
		},
		[]string{"agent", "role", "status"},
	)

	c.agentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_call_duration_seconds",
			Help:      "Agent invocation duration including retries",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"role"},
	)

	c.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_retries_total",
			Help:      "Retries scheduled after transient failures",
		},
		[]string{"agent"},
	)

	c.votesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes received, by validity",
		},
		[]string{"validity"}, // validity: counted, discarded
	)

	c.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_cache_lookups_total",
			Help:      "Candidate cache lookups, by result",
		},
		[]string{"result"},
	)

	c.fairnessGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "league_fairness_score",
			Help:      "Overall league fairness score (0-100)",
		},
	)

	c.registry.MustRegister(
		c.roundsTotal,
		c.roundDuration,
		c.agentCalls,
		c.agentDuration,
		c.retriesTotal,
		c.votesTotal,
		c.cacheLookups,
		c.fairnessGauge,
	)
	return c
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// The Record and Set methods are no-ops on a nil *Collector, so callers
// without metrics can pass nil.

// RecordRound records a finished round.
func (c *Collector) RecordRound(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.roundsTotal.WithLabelValues(outcome).Inc()
	c.roundDuration.Observe(duration.Seconds())
}

// RecordAgentCall records one agent invocation (retries included).
func (c *Collector) RecordAgentCall(agent, role, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.agentCalls.WithLabelValues(agent, role, status).Inc()
	c.agentDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// RecordRetry records a retry scheduled for agent.
func (c *Collector) RecordRetry(agent string) {
	if c == nil {
		return
	}
	c.retriesTotal.WithLabelValues(agent).Inc()
}

// RecordVotes records counted and discarded votes of a round.
func (c *Collector) RecordVotes(counted, discarded int) {
	if c == nil {
		return
	}
	c.votesTotal.WithLabelValues("counted").Add(float64(counted))
	c.votesTotal.WithLabelValues("discarded").Add(float64(discarded))
}

// RecordCacheLookup records a candidate cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// SetFairness publishes the current league fairness score.
func (c *Collector) SetFairness(score float64) {
	if c == nil {
		return
	}
	c.fairnessGauge.Set(score)
}

// WriteTextfile writes every metric in the text exposition format, suitable
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
