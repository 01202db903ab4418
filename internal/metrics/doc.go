// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package metrics provides Prometheus collectors for the notification service.

Collectors are registered on the default registry through promauto and exposed
at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP:
  - api_requests_total (method, endpoint, status_code)
  - api_request_duration_seconds (method, endpoint)
  - api_active_requests

Notifications:
  - notifications_created_total (type, mode)
  - notifications_marked_read_total

Realtime:
  - websocket_connections
  - websocket_messages_sent_total / websocket_messages_received_total (type)
  - websocket_pushes_dropped_total (reason: offline, buffer_full)
  - websocket_clients_reaped_total
  - websocket_errors_total (error_type)

Relay:
  - relay_messages_published_total / relay_publish_failures_total (backend)
  - relay_messages_consumed_total (backend)
  - circuit_breaker_state / circuit_breaker_transitions_total (name)

Backup:
  - backup_operations_total (operation, status)
  - backup_duration_seconds (operation)
*/
package metrics
