// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package supervisor runs the long-lived services of the Misdaqia server
under a suture v4 tree.

Services are grouped into three layers so a crash in one does not take
down the others:

	RootSupervisor ("misdaqia")
	├── DataSupervisor ("data-layer")
	│   ├── backup-scheduler (if BACKUP_INTERVAL > 0)
	│   └── audit-retention (if AUDIT_RETENTION_DAYS > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── nats-server (if NATS_EMBEDDED)
	│   ├── notification-relay (if RELAY_ENABLED)
	│   └── realtime-hub
	└── APISupervisor ("api-layer")
	    └── http-server

A service that returns an error is restarted with backoff. Once
FailureThreshold failures accumulate faster than FailureDecay allows, the
supervisor waits FailureBackoff before trying again. Supervisor events are
logged through sutureslog on the zerolog-backed slog logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
