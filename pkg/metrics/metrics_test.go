package metrics

import (
	stderrors "errors"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeFailure, Outcome(stderrors.New("boom")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("build")
	assert.Equal(t, "build", timer.Name())

	time.Sleep(time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), first)
}

func TestCounters(t *testing.T) {
	c := ObjectsCreated.WithLabelValues("metrics-test")
	before := promtestutil.ToFloat64(c)
	c.Inc()
	c.Inc()
	assert.Equal(t, before+2, promtestutil.ToFloat64(c))

	lookups := ConfigCacheLookups.WithLabelValues(CacheHit)
	before = promtestutil.ToFloat64(lookups)
	lookups.Inc()
	assert.Equal(t, before+1, promtestutil.ToFloat64(lookups))
}

func TestRegisteredNames(t *testing.T) {
	BuildDuration.WithLabelValues(OutcomeSuccess).Observe(0.01)
	Boots.WithLabelValues("run", OutcomeSuccess).Inc()

	assert.GreaterOrEqual(t, promtestutil.CollectAndCount(Boots, "launchpad_boots_total"), 1)
	assert.GreaterOrEqual(t, promtestutil.CollectAndCount(BuildDuration, "launchpad_build_duration_seconds"), 1)

	problems, err := promtestutil.CollectAndLint(Boots)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
