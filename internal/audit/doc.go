// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package audit records security-relevant actions: sign-ins, registrations,
account status changes, admin notifications and backup operations.

Events are queued by Logger and written by a single background goroutine,
so a slow store never blocks a request. When the queue is full the event is
dropped with a warning.

	logger := audit.NewLogger(db, audit.Config{Enabled: true, BufferSize: 1000, RetentionDays: 90})
	defer logger.Close()

	logger.LogAdminAction(r, claims.UserID, claims.Role, audit.EventBroadcast,
		"notification", "", "broadcast sent", models.JSONMap{"recipients": 12})

The persistent Store is implemented by the database package. MemoryStore
keeps a bounded slice for tests and single-node development.

Logger also implements suture.Service: Serve runs the retention cleanup,
deleting events older than RetentionDays once per CleanupInterval.
*/
package audit
