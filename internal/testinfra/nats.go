// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

//go:build integration

package testinfra

import (
	"context"
	"time"
)

// DefaultNATSImage is used by NewNATSContainer.
const DefaultNATSImage = "nats:2.10-alpine"

// NATSContainer is a running NATS server.
type NATSContainer struct {
	*brokerContainer
	URL string
}

// NewNATSContainer starts a core NATS server without JetStream.
func NewNATSContainer(ctx context.Context) (*NATSContainer, error) {
	c, err := startBroker(ctx, DefaultNATSImage, "4222", nil, 60*time.Second)
	if err != nil {
		return nil, err
	}
	return &NATSContainer{brokerContainer: c, URL: "nats://" + c.Addr}, nil
}
