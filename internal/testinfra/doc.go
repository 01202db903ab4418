// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package testinfra provides test infrastructure for integration testing.
//
// The container helpers use testcontainers-go and are only compiled with the
// integration build tag:
//
//	go test -tags integration ./internal/relay/...
//
// Relay tests use them to exercise the Redis and NATS backends against real
// brokers:
//
//	func TestRedisRelay(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//	    // connect relay.Config{Backend: "redis", Redis: {Addr: redis.Addr}}
//	}
//
// NewTestDB is available without the tag and opens a migrated in-memory
// SQLite database for package tests.
package testinfra
