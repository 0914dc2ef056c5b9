package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("wikiflow", reg, nil)

	c.RecordHTTPRequest("POST", "/v1/invocations", 200, 50*time.Millisecond)
	c.RecordInvocation(OutcomeSuccess, time.Second)
	c.RecordInvocation(OutcomeError, time.Second)
	c.RecordTaskAttempt(1)
	c.RecordTaskAttempt(2)
	c.RecordAuthAttempt(true)
	c.RecordAuthAttempt(false)
	c.RecordAuthURLPrompt()
	c.RecordStreamEvent("status")
	c.RecordStreamEvent("status")
	c.RecordStreamEvent("result")
	c.RecordConfluenceCall("search", 200, 20*time.Millisecond)
	c.RecordConfluenceCall("search", 200, 30*time.Millisecond)
	c.RecordConfluenceCall("create_page", 0, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["wikiflow_http_requests_total"])
	assert.True(t, names["wikiflow_invocations_total"])
	assert.True(t, names["wikiflow_auth_attempts_total"])

	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.invocationsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.streamEventsTotal.WithLabelValues("status")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.authAttemptsTotal.WithLabelValues(ResultFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.authURLPrompts))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.confluenceCallsTotal.WithLabelValues("search", "200")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.confluenceCallsTotal.WithLabelValues("create_page", "0")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	t.Parallel()

	var c *Collector
	// Must not panic.
	c.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	c.RecordInvocation(OutcomeSuccess, time.Second)
	c.RecordTaskAttempt(1)
	c.RecordAuthAttempt(true)
	c.RecordAuthURLPrompt()
	c.RecordStreamEvent("status")
	c.RecordConfluenceCall("search", 200, time.Millisecond)
}
