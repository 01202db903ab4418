// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/notification"
)

func seedNotifications(t *testing.T, ts *testServer, userID string, count int) []*models.Notification {
	t.Helper()
	rows := make([]*models.Notification, 0, count)
	for i := 0; i < count; i++ {
		n, err := ts.notifications.CreateNotification(context.Background(), userID, notification.Input{
			Type:    models.NotificationInfo,
			Message: fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, n)
	}
	return rows
}

func TestListNotifications_Ownership(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.createUser(t, "alice@misdaqia.sa", models.RoleUser)
	bob, _ := ts.createUser(t, "bob@misdaqia.sa", models.RoleUser)
	_, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)
	seedNotifications(t, ts, alice.ID, 2)
	seedNotifications(t, ts, bob.ID, 1)

	tests := []struct {
		name      string
		token     string
		query     string
		status    int
		wantTotal int64
	}{
		{"own implicit", aliceToken, "", http.StatusOK, 2},
		{"own explicit", aliceToken, "?userId=" + alice.ID, http.StatusOK, 2},
		{"someone else", aliceToken, "?userId=" + bob.ID, http.StatusForbidden, 0},
		{"admin for bob", adminToken, "?userId=" + bob.ID, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page models.NotificationPage
			w := ts.do(t, http.MethodGet, "/api/notifications"+tt.query, tt.token, nil)
			if tt.status != http.StatusOK {
				decode(t, w, tt.status, nil)
				return
			}
			decode(t, w, http.StatusOK, &page)
			if page.Total != tt.wantTotal || len(page.Notifications) != int(tt.wantTotal) {
				t.Errorf("page = %+v", page)
			}
		})
	}
}

func TestListNotifications_Pagination(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.createUser(t, "pager@misdaqia.sa", models.RoleUser)
	seedNotifications(t, ts, user.ID, 25)

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		var got models.NotificationPage
		decode(t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/notifications?page=%d&limit=10", page), token, nil),
			http.StatusOK, &got)
		if got.TotalPages != 3 || got.Total != 25 || got.Page != page {
			t.Fatalf("page %d meta = %+v", page, got)
		}
		for _, n := range got.Notifications {
			if seen[n.ID] {
				t.Fatalf("notification %s on two pages", n.ID)
			}
			seen[n.ID] = true
		}
	}
	if len(seen) != 25 {
		t.Errorf("saw %d notifications, want 25", len(seen))
	}

	var capped models.NotificationPage
	decode(t, ts.do(t, http.MethodGet, "/api/notifications?limit=1000", token, nil), http.StatusOK, &capped)
	if capped.Limit != notification.MaxPageSize {
		t.Errorf("limit = %d, want cap %d", capped.Limit, notification.MaxPageSize)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	user, userToken := ts.createUser(t, "life@misdaqia.sa", models.RoleUser)
	_, otherToken := ts.createUser(t, "other@misdaqia.sa", models.RoleUser)
	_, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)

	var created models.Notification
	decode(t, ts.do(t, http.MethodPost, "/api/notifications", adminToken, map[string]interface{}{
		"userId":   user.ID,
		"type":     "warning",
		"message":  "Maintenance tonight",
		"metadata": map[string]string{"window": "02:00"},
	}), http.StatusCreated, &created)
	if created.UserID != user.ID || created.Read || created.Metadata["window"] != "02:00" {
		t.Fatalf("created = %+v", created)
	}
	seedNotifications(t, ts, user.ID, 2)

	var count UnreadCountResponse
	decode(t, ts.do(t, http.MethodGet, "/api/notifications/unread-count", userToken, nil), http.StatusOK, &count)
	if count.Count != 3 {
		t.Fatalf("unread = %d, want 3", count.Count)
	}

	// another user's row reads as missing
	decode(t, ts.do(t, http.MethodPut, "/api/notifications/"+created.ID+"/read", otherToken, nil), http.StatusNotFound, nil)

	var read models.Notification
	decode(t, ts.do(t, http.MethodPut, "/api/notifications/"+created.ID+"/read", userToken, nil), http.StatusOK, &read)
	if !read.Read {
		t.Error("notification should be read")
	}
	// idempotent
	decode(t, ts.do(t, http.MethodPut, "/api/notifications/"+created.ID+"/read", userToken, nil), http.StatusOK, nil)

	decode(t, ts.do(t, http.MethodGet, "/api/notifications/unread-count", userToken, nil), http.StatusOK, &count)
	if count.Count != 2 {
		t.Errorf("unread after mark = %d, want 2", count.Count)
	}

	var all MarkAllResponse
	decode(t, ts.do(t, http.MethodPut, "/api/notifications/read-all", userToken, nil), http.StatusOK, &all)
	if all.Updated != 2 {
		t.Errorf("read-all updated = %d, want 2", all.Updated)
	}

	var unreadOnly models.NotificationPage
	decode(t, ts.do(t, http.MethodGet, "/api/notifications?includeRead=false", userToken, nil), http.StatusOK, &unreadOnly)
	if unreadOnly.Total != 0 {
		t.Errorf("unread listing total = %d", unreadOnly.Total)
	}

	decode(t, ts.do(t, http.MethodDelete, "/api/notifications/"+created.ID, userToken, nil), http.StatusForbidden, nil)
	decode(t, ts.do(t, http.MethodDelete, "/api/notifications/"+created.ID, adminToken, nil), http.StatusOK, nil)
	decode(t, ts.do(t, http.MethodDelete, "/api/notifications/"+created.ID, adminToken, nil), http.StatusNotFound, nil)
}

func TestCreateNotification_Validation(t *testing.T) {
	ts := newTestServer(t)
	user, _ := ts.createUser(t, "v@misdaqia.sa", models.RoleUser)
	_, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing user", map[string]interface{}{"type": "info", "message": "x"}},
		{"missing message", map[string]interface{}{"userId": user.ID, "type": "info"}},
		{"unknown type", map[string]interface{}{"userId": user.ID, "type": "spam", "message": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decode(t, ts.do(t, http.MethodPost, "/api/notifications", adminToken, tt.body), http.StatusBadRequest, nil)
			if env.Error.Code != ErrCodeValidation {
				t.Errorf("code = %q", env.Error.Code)
			}
		})
	}
}

func TestBroadcast_ExcludeSemantics(t *testing.T) {
	ts := newTestServer(t)
	admin, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)
	u1, _ := ts.createUser(t, "u1@misdaqia.sa", models.RoleUser)
	u2, _ := ts.createUser(t, "u2@misdaqia.sa", models.RoleUser)

	body := map[string]interface{}{"type": "broadcast", "message": "New feature"}
	var res BroadcastResponse
	decode(t, ts.do(t, http.MethodPost, "/api/admin/notifications/broadcast", adminToken, body), http.StatusCreated, &res)
	if res.Recipients != 2 {
		t.Fatalf("default exclusion recipients = %d, want 2", res.Recipients)
	}
	if n, _ := ts.notifications.GetUnreadCount(context.Background(), admin.ID); n != 0 {
		t.Errorf("caller received %d rows", n)
	}

	body["excludeUserId"] = u1.ID
	decode(t, ts.do(t, http.MethodPost, "/api/admin/notifications/broadcast", adminToken, body), http.StatusCreated, &res)
	if res.Recipients != 2 {
		t.Fatalf("explicit exclusion recipients = %d, want 2", res.Recipients)
	}

	ctx := context.Background()
	counts := map[string]int64{}
	for _, id := range []string{admin.ID, u1.ID, u2.ID} {
		counts[id], _ = ts.notifications.GetUnreadCount(ctx, id)
	}
	if counts[admin.ID] != 1 || counts[u1.ID] != 1 || counts[u2.ID] != 2 {
		t.Errorf("unread counts = %v", counts)
	}
}
