// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package main

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/relay"
	"github.com/ahmed2za/shaip-sub002/internal/supervisor"
	"github.com/ahmed2za/shaip-sub002/internal/supervisor/services"
)

// startRelay connects the configured backend, starting an embedded NATS
// server first when asked to, and registers the consumers with the tree.
// The returned func releases the backend connections.
func startRelay(cfg *config.Config, local relay.Local, tree *supervisor.SupervisorTree) (*relay.Relay, func(), error) {
	if cfg.Relay.Backend == relay.BackendNATS && cfg.Relay.NATS.Embedded {
		ns, err := relay.NewEmbeddedServer(&cfg.Relay.NATS)
		if err != nil {
			return nil, nil, fmt.Errorf("embedded nats: %w", err)
		}
		cfg.Relay.NATS.URL = ns.ClientURL()
		tree.AddMessagingService(services.NewNATSServerService(ns))
	}

	rel, err := relay.New(&cfg.Relay, local, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		return nil, nil, err
	}
	tree.AddMessagingService(services.NewRelayService(rel))

	logging.Info().
		Str("backend", cfg.Relay.Backend).
		Str("topic", cfg.Relay.Topic).
		Str("instance", rel.InstanceID()).
		Msg("Notification relay enabled")

	return rel, func() {
		if err := rel.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing relay")
		}
	}, nil
}
