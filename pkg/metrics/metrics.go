// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for go-passkey operations.
// It exposes ceremony counters, performance histograms, error counters, and resource
// gauges to enable comprehensive monitoring of passkey server health and performance.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all passkey metrics
	Namespace = "passkey"

	// Label names
	LabelCeremony   = "ceremony"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelProtocol   = "protocol"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"
	LabelStore      = "store"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Ceremony kinds
	CeremonyRegistration   = "registration"
	CeremonyAuthentication = "authentication"
)

var (
	// CeremoniesTotal tracks the total number of completed WebAuthn ceremonies
	// by kind and outcome. Use RecordCeremony to increment this counter with
	// the appropriate labels.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremonies_total",
			Help:      "Total number of WebAuthn ceremonies by kind and outcome",
		},
		[]string{LabelCeremony, LabelStatus},
	)

	// CeremonyDuration tracks the duration of ceremony verification in seconds.
	// Buckets are optimized for typical signature verification latencies.
	CeremonyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ceremony_duration_seconds",
			Help:      "Duration of ceremony verification in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelCeremony},
	)

	// ChallengesIssuedTotal tracks the total number of challenges issued by
	// ceremony kind.
	ChallengesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_issued_total",
			Help:      "Total number of challenges issued by ceremony kind",
		},
		[]string{LabelCeremony},
	)

	// ChallengesExpiredTotal tracks the total number of challenges removed by
	// the TTL cleanup sweep without being consumed.
	ChallengesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_expired_total",
			Help:      "Total number of challenges that expired without being consumed",
		},
	)

	// ReplayDetectionsTotal tracks the total number of assertions rejected by
	// the signature counter replay guard.
	ReplayDetectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "replay_detections_total",
			Help:      "Total number of assertions rejected by the signature counter replay guard",
		},
	)

	// VerificationErrorsTotal tracks verification failures by ceremony and error type.
	// Error types should be specific (e.g., "invalid_origin", "counter_rollback", "signature_invalid").
	VerificationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "verification_errors_total",
			Help:      "Total number of verification failures by ceremony and error type",
		},
		[]string{LabelCeremony, LabelErrorType},
	)

	// ActiveConnections tracks the number of active connections by protocol.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_connections",
			Help:      "Number of active connections by protocol",
		},
		[]string{LabelProtocol},
	)

	// HTTPRequestsTotal tracks the total number of HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks the duration of HTTP requests in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	// Goroutines tracks the current number of goroutines in the passkey server.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	// Updated periodically by the resource collector.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// MemorySysBytes tracks the total bytes of memory obtained from the OS.
	// Updated periodically by the resource collector.
	MemorySysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Total bytes of memory obtained from the OS",
		},
	)

	// GCPauseTotalSeconds tracks the cumulative time spent in GC stop-the-world pauses.
	// Updated periodically by the resource collector.
	GCPauseTotalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		},
	)

	// CredentialsTotal tracks the total number of active credentials in each store.
	CredentialsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "credentials_total",
			Help:      "Total number of active credentials in each store",
		},
		[]string{LabelStore},
	)

	// AccountsTotal tracks the total number of accounts in each store.
	AccountsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "accounts_total",
			Help:      "Total number of accounts in each store",
		},
		[]string{LabelStore},
	)

	// StoreHealthy indicates whether a store is healthy (1) or unhealthy (0).
	StoreHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "store_healthy",
			Help:      "Indicates whether a store is healthy (1) or unhealthy (0)",
		},
		[]string{LabelStore},
	)

	// ServerUptime tracks the server uptime in seconds since startup.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordCeremony records a completed ceremony with its duration and outcome.
// This is the primary function for tracking ceremony metrics.
//
// Parameters:
//   - ceremony: The ceremony kind (use Ceremony* constants)
//   - status: The ceremony outcome (use Status* constants)
//   - duration: The verification duration in seconds
//
// Example:
//
//	start := time.Now()
//	result, err := svc.FinishAuthentication(ctx, response)
//	duration := time.Since(start).Seconds()
//	if err != nil {
//	    RecordCeremony(CeremonyAuthentication, StatusError, duration)
//	} else {
//	    RecordCeremony(CeremonyAuthentication, StatusSuccess, duration)
//	}
func RecordCeremony(ceremony, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	CeremoniesTotal.WithLabelValues(ceremony, status).Inc()
	CeremonyDuration.WithLabelValues(ceremony).Observe(duration)
}

// RecordChallengeIssued records a challenge handed out by a begin operation.
//
// Parameters:
//   - ceremony: The ceremony kind the challenge was issued for (use Ceremony* constants)
func RecordChallengeIssued(ceremony string) {
	if !enabled.Load() {
		return
	}
	ChallengesIssuedTotal.WithLabelValues(ceremony).Inc()
}

// RecordChallengesExpired records challenges swept by the TTL cleanup routine.
//
// Parameters:
//   - count: The number of challenges removed in this sweep
func RecordChallengesExpired(count float64) {
	if !enabled.Load() {
		return
	}
	ChallengesExpiredTotal.Add(count)
}

// RecordReplayDetection records an assertion rejected because its signature
// counter did not advance past the stored value.
func RecordReplayDetection() {
	if !enabled.Load() {
		return
	}
	ReplayDetectionsTotal.Inc()
}

// RecordVerificationError records a verification failure with context about
// where it occurred.
//
// Parameters:
//   - ceremony: The ceremony during which the failure occurred (use Ceremony* constants)
//   - errorType: A specific error type identifier (e.g., "invalid_origin", "signature_invalid")
//
// Example:
//
//	if webauthn.IsCounterRollback(err) {
//	    RecordVerificationError(CeremonyAuthentication, "counter_rollback")
//	}
func RecordVerificationError(ceremony, errorType string) {
	if !enabled.Load() {
		return
	}
	VerificationErrorsTotal.WithLabelValues(ceremony, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration and status.
//
// Parameters:
//   - method: The HTTP method (GET, POST, etc.)
//   - statusCode: The HTTP status code as a string
//   - duration: The request duration in seconds
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}

// IncrementActiveConnections increments the active connection count for a protocol.
func IncrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Inc()
}

// DecrementActiveConnections decrements the active connection count for a protocol.
func DecrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Dec()
}

// SetCredentialsTotal sets the total number of active credentials for a store.
func SetCredentialsTotal(store string, count float64) {
	if !enabled.Load() {
		return
	}
	CredentialsTotal.WithLabelValues(store).Set(count)
}

// SetAccountsTotal sets the total number of accounts for a store.
func SetAccountsTotal(store string, count float64) {
	if !enabled.Load() {
		return
	}
	AccountsTotal.WithLabelValues(store).Set(count)
}

// SetStoreHealth sets the health status of a store.
// healthy=true sets the gauge to 1, healthy=false sets it to 0.
func SetStoreHealth(store string, healthy bool) {
	if !enabled.Load() {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	StoreHealthy.WithLabelValues(store).Set(value)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
