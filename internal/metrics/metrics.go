// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Notification Metrics
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification rows persisted",
		},
		[]string{"type", "mode"}, // mode: "single", "broadcast"
	)

	NotificationsMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_marked_read_total",
			Help: "Total number of notifications flipped to read",
		},
	)

	// Realtime Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of authenticated WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued for delivery",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
		[]string{"type"},
	)

	WSPushesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_pushes_dropped_total",
			Help: "Total number of realtime pushes that could not be delivered",
		},
		[]string{"reason"}, // "offline", "buffer_full"
	)

	WSClientsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_reaped_total",
			Help: "Total number of connections terminated for missing heartbeats",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Relay Metrics
	RelayPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_published_total",
			Help: "Total number of delivery envelopes published to the relay",
		},
		[]string{"backend"},
	)

	RelayPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_publish_failures_total",
			Help: "Total number of relay publish failures",
		},
		[]string{"backend"},
	)

	RelayConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_consumed_total",
			Help: "Total number of delivery envelopes consumed from the relay",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Backup Metrics
	BackupOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_operations_total",
			Help: "Total number of backup and restore operations",
		},
		[]string{"operation", "status"},
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of backup and restore operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"object", "action", "result"},
	)

	// Audit Metrics
	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Audit events accepted, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit events dropped because the write queue was full",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNotificationsCreated counts persisted rows of one type.
func RecordNotificationsCreated(notificationType, mode string, count int) {
	NotificationsCreated.WithLabelValues(notificationType, mode).Add(float64(count))
}

// RecordPushDropped counts an undeliverable realtime push.
func RecordPushDropped(reason string) {
	WSPushesDropped.WithLabelValues(reason).Inc()
}

// RecordRelayPublish records the outcome of one relay publish.
func RecordRelayPublish(backend string, err error) {
	if err != nil {
		RelayPublishFailures.WithLabelValues(backend).Inc()
		return
	}
	RelayPublished.WithLabelValues(backend).Inc()
}

// RecordBackupOperation records a backup or restore run.
func RecordBackupOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BackupOperations.WithLabelValues(operation, status).Inc()
	BackupDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// breakerStateValue maps breaker state names onto the gauge encoding.
func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordBreakerTransition updates breaker gauges on a state change.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordAuthzDecision counts one policy decision.
func RecordAuthzDecision(object, action string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(object, action, result).Inc()
}

// RecordAuditEvent counts one accepted audit event.
func RecordAuditEvent(eventType, outcome string) {
	AuditEvents.WithLabelValues(eventType, outcome).Inc()
}
