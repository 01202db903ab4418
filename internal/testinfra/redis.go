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

// DefaultRedisImage is used by NewRedisContainer.
const DefaultRedisImage = "redis:7-alpine"

// RedisContainer is a running Redis server. Addr is host:port.
type RedisContainer struct {
	*brokerContainer
}

// NewRedisContainer starts a throwaway Redis server.
//
//	redis, err := testinfra.NewRedisContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, redis)
func NewRedisContainer(ctx context.Context) (*RedisContainer, error) {
	c, err := startBroker(ctx, DefaultRedisImage, "6379", nil, 60*time.Second)
	if err != nil {
		return nil, err
	}
	return &RedisContainer{brokerContainer: c}, nil
}
