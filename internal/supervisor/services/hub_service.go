// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package services

import "context"

// ContextHub is satisfied by *realtime.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the realtime hub's heartbeat loop. The hub closes
// every socket when its context ends.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService wraps hub.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub, name: "realtime-hub"}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (s *HubService) String() string {
	return s.name
}
