// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HubService)(nil)
	_ suture.Service = (*RelayService)(nil)
	_ suture.Service = (*NATSServerService)(nil)
)

// blockingRunner blocks until canceled, or returns err immediately.
type blockingRunner struct {
	err   error
	calls atomic.Int32
}

func (b *blockingRunner) wait(ctx context.Context) error {
	b.calls.Add(1)
	if b.err != nil {
		return b.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingRunner) RunWithContext(ctx context.Context) error { return b.wait(ctx) }
func (b *blockingRunner) Run(ctx context.Context) error            { return b.wait(ctx) }

type fakeNATS struct {
	blockingRunner
	running bool
}

func (f *fakeNATS) Serve(ctx context.Context) error { return f.wait(ctx) }
func (f *fakeNATS) IsRunning() bool                 { return f.running }

func serveBriefly(t *testing.T, svc suture.Service) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	return svc.Serve(ctx)
}

func TestServiceNames(t *testing.T) {
	tests := []struct {
		svc  interface{ String() string }
		want string
	}{
		{NewHubService(&blockingRunner{}), "realtime-hub"},
		{NewRelayService(&blockingRunner{}), "notification-relay"},
		{NewNATSServerService(&fakeNATS{}), "nats-server"},
	}
	for _, tt := range tests {
		if got := tt.svc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestHubService_DelegatesToHub(t *testing.T) {
	hub := &blockingRunner{}
	if err := serveBriefly(t, NewHubService(hub)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if hub.calls.Load() != 1 {
		t.Errorf("RunWithContext calls = %d", hub.calls.Load())
	}
}

func TestRelayService_Serve(t *testing.T) {
	if err := serveBriefly(t, NewRelayService(&blockingRunner{})); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("canceled Serve() = %v", err)
	}

	dropped := errors.New("relay subscription closed")
	err := serveBriefly(t, NewRelayService(&blockingRunner{err: dropped}))
	if !errors.Is(err, dropped) || err.Error() != "relay consumer stopped: relay subscription closed" {
		t.Errorf("dropped Serve() = %v", err)
	}
}

func TestNATSServerService_Serve(t *testing.T) {
	down := &fakeNATS{}
	if err := serveBriefly(t, NewNATSServerService(down)); !errors.Is(err, ErrNATSNotRunning) {
		t.Errorf("stopped server Serve() = %v", err)
	}
	if down.calls.Load() != 0 {
		t.Error("Serve should not be delegated to a stopped server")
	}

	up := &fakeNATS{running: true}
	if err := serveBriefly(t, NewNATSServerService(up)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("running server Serve() = %v", err)
	}
}
