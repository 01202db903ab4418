// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package presence

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", path, err)
	}
	return s
}

func TestStore_Transitions(t *testing.T) {
	s := openTestStore(t, "")
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("Get(unknown) error = %v, want ErrUnknown", err)
	}

	connected := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.MarkOnline(ctx, "u1", connected); err != nil {
		t.Fatal(err)
	}
	st, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Online || !st.LastSeen.Equal(connected) {
		t.Errorf("after online: %+v", st)
	}

	left := connected.Add(time.Hour)
	if err := s.MarkOffline(ctx, "u1", left); err != nil {
		t.Fatal(err)
	}
	st, _ = s.Get(ctx, "u1")
	if st.Online || !st.LastSeen.Equal(left) {
		t.Errorf("after offline: online=%v lastSeen=%v", st.Online, st.LastSeen)
	}

	if err := s.MarkOffline(ctx, "u1", left); err != nil {
		t.Errorf("second MarkOffline() error = %v", err)
	}
}

func TestStore_ReopenClearsOnlineFlags(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)

	s := openTestStore(t, dir)
	if err := s.MarkOnline(ctx, "u1", at); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = openTestStore(t, dir)
	defer s.Close()
	st, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Online {
		t.Error("online flag survived restart")
	}
	if !st.LastSeen.Equal(at) {
		t.Errorf("LastSeen = %v, want %v", st.LastSeen, at)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	s := openTestStore(t, "")
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.MarkOnline(ctx, "u1", time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("MarkOnline() error = %v, want context.Canceled", err)
	}
}
