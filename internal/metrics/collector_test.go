package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordRound(t *testing.T) {
	c := NewCollector("forge_test")

	c.RecordRound("ok", 3*time.Second)
	c.RecordRound("ok", time.Second)
	c.RecordRound("degraded", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.roundsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.roundsTotal.WithLabelValues("degraded")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.roundDuration))
}

func TestCollector_AgentsAndRetries(t *testing.T) {
	c := NewCollector("forge_test")

	c.RecordAgentCall("Echo Chamber", "producer", "success", 2*time.Second)
	c.RecordAgentCall("The Curator", "evaluator", "failed", time.Second)
	c.RecordRetry("The Curator")
	c.RecordRetry("The Curator")

	assert.Equal(t, 2, testutil.CollectAndCount(c.agentCalls))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.retriesTotal.WithLabelValues("The Curator")))
}

func TestCollector_VotesCacheAndFairness(t *testing.T) {
	c := NewCollector("forge_test")

	c.RecordVotes(9, 2)
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)
	c.SetFairness(72.5)

	assert.Equal(t, 9.0, testutil.ToFloat64(c.votesTotal.WithLabelValues("counted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.votesTotal.WithLabelValues("discarded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 72.5, testutil.ToFloat64(c.fairnessGauge))
}

func TestCollector_CollectorsAreIndependent(t *testing.T) {
	a := NewCollector("forge_test")
	b := NewCollector("forge_test")

	a.RecordRetry("x")

	assert.Equal(t, 1, testutil.CollectAndCount(a.retriesTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(b.retriesTotal))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector("forge_test")
	c.RecordRound("ok", time.Second)

	path := filepath.Join(t.TempDir(), "forge.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `forge_test_rounds_total{outcome="ok"} 1`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	require.NotPanics(t, func() {
		c.RecordRound("ok", time.Second)
		c.RecordAgentCall("Echo Chamber", "producer", "success", time.Second)
		c.RecordRetry("Echo Chamber")
		c.RecordVotes(3, 1)
		c.RecordCacheLookup(true)
		c.SetFairness(88.5)
	})
}
