// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package services

import (
	"context"
	"errors"
	"fmt"
)

// RelayRunner is satisfied by *relay.Relay.
type RelayRunner interface {
	Run(ctx context.Context) error
}

// RelayService supervises the cross-instance consumer. Run returns when its
// subscription drops, which lets suture resubscribe with backoff.
type RelayService struct {
	relay RelayRunner
	name  string
}

// NewRelayService wraps r.
func NewRelayService(r RelayRunner) *RelayService {
	return &RelayService{relay: r, name: "notification-relay"}
}

// Serve implements suture.Service.
func (s *RelayService) Serve(ctx context.Context) error {
	err := s.relay.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("relay consumer stopped: %w", err)
}

// String names the service in supervisor logs.
func (s *RelayService) String() string {
	return s.name
}
