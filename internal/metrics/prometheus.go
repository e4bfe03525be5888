// Package metrics defines the Prometheus instrumentation for the
// translation relay service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the translation relay
type Metrics struct {
	// WebSocket connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Session metrics
	SessionsActive   prometheus.Gauge
	SessionsCreated  prometheus.Counter
	SessionsEnded    prometheus.Counter
	SessionDuration  prometheus.Histogram
	SetupFailures    prometheus.Counter
	RelayFailures    prometheus.Counter

	// Audio forwarding metrics
	AudioChunksForwarded prometheus.Counter
	AudioBytesForwarded  prometheus.Counter

	// Upstream response metrics
	ResponseAudioEvents prometheus.Counter
	ResponseTextEvents  prometheus.Counter
	ResponseRoleEvents  prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "translator_ws_connections_active",
			Help: "Current number of open client WebSocket connections",
		}),
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_ws_connections_total",
			Help: "Total number of client WebSocket connections accepted",
		}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "translator_sessions_active",
			Help: "Current number of active translation sessions",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_sessions_created_total",
			Help: "Total number of translation sessions created",
		}),
		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_sessions_ended_total",
			Help: "Total number of translation sessions torn down",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "translator_session_duration_seconds",
			Help:    "Duration of translation sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),
		SetupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_session_setup_failures_total",
			Help: "Total number of sessions that failed during upstream setup",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_relay_failures_total",
			Help: "Total number of sessions whose upstream response stream failed",
		}),

		AudioChunksForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_audio_chunks_forwarded_total",
			Help: "Total number of client audio chunks forwarded upstream",
		}),
		AudioBytesForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_audio_bytes_forwarded_total",
			Help: "Total raw PCM bytes forwarded upstream",
		}),

		ResponseAudioEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_response_audio_events_total",
			Help: "Total number of audio-output events relayed to clients",
		}),
		ResponseTextEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_response_text_events_total",
			Help: "Total number of text-output events relayed to clients",
		}),
		ResponseRoleEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "translator_response_role_events_total",
			Help: "Total number of role-changed notifications relayed to clients",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "translator_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "translator_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "translator_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordConnectionOpened tracks a newly accepted WebSocket connection
func (m *Metrics) RecordConnectionOpened() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// RecordConnectionClosed tracks a closed WebSocket connection
func (m *Metrics) RecordConnectionClosed() {
	m.ConnectionsActive.Dec()
}

// RecordSessionCreated increments the session counters
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnded records a completed session and its duration
func (m *Metrics) RecordSessionEnded(durationSeconds float64) {
	m.SessionsEnded.Inc()
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordSetupFailure increments the setup-failure counter
func (m *Metrics) RecordSetupFailure() {
	m.SetupFailures.Inc()
}

// RecordRelayFailure increments the relay-failure counter
func (m *Metrics) RecordRelayFailure() {
	m.RelayFailures.Inc()
}

// RecordAudioForwarded records one forwarded audio chunk
func (m *Metrics) RecordAudioForwarded(sizeBytes int) {
	m.AudioChunksForwarded.Inc()
	m.AudioBytesForwarded.Add(float64(sizeBytes))
}

// RecordResponseAudio increments the relayed audio-output counter
func (m *Metrics) RecordResponseAudio() {
	m.ResponseAudioEvents.Inc()
}

// RecordResponseText increments the relayed text-output counter
func (m *Metrics) RecordResponseText() {
	m.ResponseTextEvents.Inc()
}

// RecordResponseRole increments the relayed role-changed counter
func (m *Metrics) RecordResponseRole() {
	m.ResponseRoleEvents.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
