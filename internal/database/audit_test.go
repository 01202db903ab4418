// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

var _ audit.Store = (*DB)(nil)

func TestAuditEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	events := []*audit.Event{
		{ID: "a1", Timestamp: base, Type: audit.EventLogin, Outcome: audit.OutcomeSuccess, ActorID: "u1", TargetID: "u1"},
		{ID: "a2", Timestamp: base.Add(time.Hour), Type: audit.EventBroadcast, Outcome: audit.OutcomeSuccess,
			ActorID: "admin", Metadata: models.JSONMap{"recipients": float64(4)}},
		{ID: "a3", Timestamp: base.AddDate(0, 0, 2), Type: audit.EventLoginFailed, Outcome: audit.OutcomeFailure,
			SourceIP: "10.0.0.9"},
	}
	for _, e := range events {
		if err := db.SaveAuditEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SaveAuditEvent(ctx, events[0]); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate id error = %v", err)
	}

	all, err := db.QueryAuditEvents(ctx, audit.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Fatalf("order = %+v", all)
	}
	if all[1].Metadata["recipients"] != float64(4) || all[0].SourceIP != "10.0.0.9" {
		t.Errorf("round trip = %+v / %+v", all[1], all[0])
	}

	since := base.Add(30 * time.Minute)
	tests := []struct {
		name   string
		filter audit.Filter
		want   []string
	}{
		{"type", audit.Filter{Types: []audit.EventType{audit.EventLogin, audit.EventLoginFailed}}, []string{"a3", "a1"}},
		{"actor", audit.Filter{ActorID: "admin"}, []string{"a2"}},
		{"target", audit.Filter{TargetID: "u1"}, []string{"a1"}},
		{"since", audit.Filter{Since: &since}, []string{"a3", "a2"}},
		{"limit", audit.Filter{Limit: 1}, []string{"a3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.QueryAuditEvents(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %v", len(got), tt.want)
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}

	removed, err := db.DeleteAuditEventsBefore(ctx, base.AddDate(0, 0, 1))
	if err != nil || removed != 2 {
		t.Fatalf("removed = %d, %v", removed, err)
	}
	left, _ := db.QueryAuditEvents(ctx, audit.Filter{})
	if len(left) != 1 || left[0].ID != "a3" {
		t.Errorf("left = %+v", left)
	}
}
