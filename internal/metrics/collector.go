package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Invocation outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeAuthFailed = "auth_failed"
	OutcomeError      = "error"
)

// Auth attempt results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector records service metrics. A nil *Collector is a valid
// no-op receiver so components can run without metrics wired.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	taskAttemptsTotal  *prometheus.CounterVec
	authAttemptsTotal  *prometheus.CounterVec
	authURLPrompts     prometheus.Counter
	streamEventsTotal  *prometheus.CounterVec

	confluenceCallsTotal   *prometheus.CounterVec
	confluenceCallDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. When reg is
// nil the default prometheus registerer is used.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.invocationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of agent invocations by outcome",
		},
		[]string{"outcome"},
	)
	c.invocationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Agent invocation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"outcome"},
	)
	c.taskAttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_attempts_total",
			Help:      "Total number of task invocations by attempt number",
		},
		[]string{"attempt"},
	)
	c.authAttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total number of authentication gate runs by result",
		},
		[]string{"result"},
	)
	c.authURLPrompts = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_url_prompts_total",
			Help:      "Total number of interactive consent URLs issued",
		},
	)
	c.streamEventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Total number of stream events emitted by type",
		},
		[]string{"type"},
	)

	c.confluenceCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confluence_api_calls_total",
			Help:      "Total number of Confluence API calls by operation and status",
		},
		[]string{"operation", "status"},
	)
	c.confluenceCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confluence_api_call_duration_seconds",
			Help:      "Confluence API call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	return c
}

// RecordHTTPRequest records one handled HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordInvocation records one completed agent invocation.
func (c *Collector) RecordInvocation(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.invocationsTotal.WithLabelValues(outcome).Inc()
	c.invocationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordTaskAttempt records one task invocation attempt.
func (c *Collector) RecordTaskAttempt(attempt int) {
	if c == nil {
		return
	}
	c.taskAttemptsTotal.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

// RecordAuthAttempt records one authentication gate run.
func (c *Collector) RecordAuthAttempt(success bool) {
	if c == nil {
		return
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordAuthURLPrompt records one interactive consent URL issued.
func (c *Collector) RecordAuthURLPrompt() {
	if c == nil {
		return
	}
	c.authURLPrompts.Inc()
}

// RecordConfluenceCall records one Confluence API call. A status of 0
// means the request never reached the API.
func (c *Collector) RecordConfluenceCall(operation string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.confluenceCallsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	c.confluenceCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStreamEvent records one emitted stream event.
func (c *Collector) RecordStreamEvent(eventType string) {
	if c == nil {
		return
	}
	c.streamEventsTotal.WithLabelValues(eventType).Inc()
}
