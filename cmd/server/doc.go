// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package main is the entry point for the Misdaqia notification server.
//
// The server stores notifications for users of the Misdaqia company review
// platform and pushes them to connected browsers over a websocket.
//
// # Startup Order
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. Database (DuckDB or SQLite through sqlx) and migrations
//  4. Presence store (Badger)
//  5. Accounts, JWT and the bootstrap admin
//  6. Casbin enforcer
//  7. Notification service and realtime hub
//  8. Relay (optional, RELAY_ENABLED): cross-instance fan-out over an
//     in-memory, NATS or Redis backend
//  9. Review and backup services, audit trail (AUDIT_ENABLED)
//  10. HTTP router and the supervisor tree, including the backup scheduler
//     (BACKUP_INTERVAL) and audit retention (AUDIT_RETENTION_DAYS)
//
// # Example
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_EMAIL=admin@misdaqia.sa
//	export ADMIN_PASSWORD=change-me-now
//	export DATABASE_DRIVER=sqlite DATABASE_PATH=/data/misdaqia.db
//	./misdaqia-server
//
// Two instances sharing one database exchange pushes with:
//
//	export RELAY_ENABLED=true RELAY_BACKEND=nats NATS_URL=nats://nats:4222
//
// SIGINT and SIGTERM stop the HTTP server, close every socket and flush the
// stores before exit.
package main
