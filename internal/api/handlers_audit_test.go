// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"net/http"
	"testing"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

func TestAuditTrail(t *testing.T) {
	ts := newTestServer(t)
	target, _ := ts.createUser(t, "target@misdaqia.sa", models.RoleUser)
	admin, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)

	decode(t, ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Nora", "email": "nora@misdaqia.sa", "password": "nora-password",
	}), http.StatusCreated, nil)
	decode(t, ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nora@misdaqia.sa", "password": "wrong-password",
	}), http.StatusUnauthorized, nil)
	decode(t, ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nora@misdaqia.sa", "password": "nora-password",
	}), http.StatusOK, nil)
	decode(t, ts.do(t, http.MethodPut, "/api/admin/users/"+target.ID+"/status", adminToken,
		map[string]interface{}{"status": "blocked"}), http.StatusOK, nil)
	decode(t, ts.do(t, http.MethodPost, "/api/admin/notifications/broadcast", adminToken,
		map[string]string{"type": "broadcast", "message": "hello"}), http.StatusCreated, nil)

	var events []audit.Event
	eventually(t, func() bool {
		decode(t, ts.do(t, http.MethodGet, "/api/admin/audit", adminToken, nil), http.StatusOK, &events)
		return len(events) == 5
	})
	if events[0].Type != audit.EventBroadcast || events[0].ActorID != admin.ID || events[0].Metadata["recipients"] != float64(1) {
		t.Errorf("latest = %+v", events[0])
	}

	tests := []struct {
		name  string
		query string
		want  []audit.EventType
	}{
		{"failed logins", "?type=auth.login_failed", []audit.EventType{audit.EventLoginFailed}},
		{"auth events", "?type=auth.login,auth.login_failed", []audit.EventType{audit.EventLogin, audit.EventLoginFailed}},
		{"by target", "?targetId=" + target.ID, []audit.EventType{audit.EventUserStatusChanged}},
		{"limit", "?limit=2", []audit.EventType{audit.EventBroadcast, audit.EventUserStatusChanged}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []audit.Event
			decode(t, ts.do(t, http.MethodGet, "/api/admin/audit"+tt.query, adminToken, nil), http.StatusOK, &got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %v", len(got), tt.want)
			}
			for i, e := range got {
				if e.Type != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, e.Type, tt.want[i])
				}
			}
		})
	}

	decode(t, ts.do(t, http.MethodGet, "/api/admin/audit?since=yesterday", adminToken, nil), http.StatusBadRequest, nil)
}
