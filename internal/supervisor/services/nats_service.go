// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package services

import (
	"context"
	"errors"
)

// ErrNATSNotRunning is returned when the embedded server stopped before
// Serve was called.
var ErrNATSNotRunning = errors.New("embedded nats server is not running")

// NATSServer is satisfied by *relay.EmbeddedServer.
type NATSServer interface {
	Serve(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService keeps the embedded NATS server in the tree and shuts it
// down with the messaging layer.
type NATSServerService struct {
	server NATSServer
	name   string
}

// NewNATSServerService wraps server.
func NewNATSServerService(server NATSServer) *NATSServerService {
	return &NATSServerService{server: server, name: "nats-server"}
}

// Serve implements suture.Service.
func (s *NATSServerService) Serve(ctx context.Context) error {
	if !s.server.IsRunning() {
		return ErrNATSNotRunning
	}
	return s.server.Serve(ctx)
}

// String names the service in supervisor logs.
func (s *NATSServerService) String() string {
	return s.name
}
