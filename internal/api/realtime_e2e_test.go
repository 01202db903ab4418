// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
)

func dialRealtime(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	msg, err := realtime.MarshalMessage(realtime.MessageTypeAuth, realtime.AuthPayload{Token: token})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatal(err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, msgType string, out interface{}) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != msgType {
			continue
		}
		if err := json.Unmarshal(env.Payload, out); err != nil {
			t.Fatal(err)
		}
		return
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// An offline user loses the push but finds the row on connect and through
// polling; once connected, new rows and broadcasts arrive live.
func TestRealtime_OfflineUserEndToEnd(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	user, userToken := ts.createUser(t, "offline@misdaqia.sa", models.RoleUser)
	watcher, watcherToken := ts.createUser(t, "watcher@misdaqia.sa", models.RoleUser)
	_, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)

	var missed models.Notification
	decode(t, ts.do(t, http.MethodPost, "/api/notifications", adminToken, map[string]string{
		"userId": user.ID, "type": "info", "message": "sent while offline",
	}), http.StatusCreated, &missed)

	var page models.NotificationPage
	decode(t, ts.do(t, http.MethodGet, "/api/notifications", userToken, nil), http.StatusOK, &page)
	if page.Total != 1 || page.Notifications[0].ID != missed.ID {
		t.Fatalf("poll = %+v", page)
	}

	watcherConn := dialRealtime(t, server, watcherToken)
	var watcherInit realtime.NotificationsInitPayload
	readMessage(t, watcherConn, realtime.MessageTypeNotificationsInit, &watcherInit)
	eventually(t, func() bool { return ts.hub.IsOnline(watcher.ID) })

	conn := dialRealtime(t, server, userToken)
	var init realtime.NotificationsInitPayload
	readMessage(t, conn, realtime.MessageTypeNotificationsInit, &init)
	if len(init.Notifications) != 1 || init.Notifications[0].ID != missed.ID {
		t.Fatalf("init = %+v", init.Notifications)
	}

	var status realtime.UserStatusPayload
	readMessage(t, watcherConn, realtime.MessageTypeUserStatus, &status)
	if status.UserID != user.ID || status.Status != realtime.StatusOnline {
		t.Errorf("user_status = %+v", status)
	}
	eventually(t, func() bool { return ts.hub.IsOnline(user.ID) })

	var live models.Notification
	decode(t, ts.do(t, http.MethodPost, "/api/notifications", adminToken, map[string]string{
		"userId": user.ID, "type": "success", "message": "live",
	}), http.StatusCreated, nil)
	readMessage(t, conn, realtime.MessageTypeNotification, &live)
	if live.Message != "live" || live.UserID != user.ID || live.ID == "" {
		t.Errorf("live push = %+v", live)
	}

	// socket mark-read goes through the same service path as REST
	msg, _ := realtime.MarshalMessage(realtime.MessageTypeNotificationRead,
		realtime.NotificationReadPayload{NotificationID: missed.ID})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool {
		n, err := ts.notifications.GetUnreadCount(context.Background(), user.ID)
		return err == nil && n == 1
	})

	var res BroadcastResponse
	decode(t, ts.do(t, http.MethodPost, "/api/admin/notifications/broadcast", adminToken, map[string]string{
		"type": "broadcast", "message": "everyone", "excludeUserId": watcher.ID,
	}), http.StatusCreated, &res)

	var pushed models.Notification
	readMessage(t, conn, realtime.MessageTypeNotification, &pushed)
	if pushed.Message != "everyone" || pushed.UserID != user.ID || pushed.ID == "" {
		t.Errorf("broadcast push = %+v", pushed)
	}

	_ = conn.Close()
	readMessage(t, watcherConn, realtime.MessageTypeUserStatus, &status)
	if status.UserID != user.ID || status.Status != realtime.StatusOffline {
		t.Errorf("user_status after close = %+v", status)
	}
	eventually(t, func() bool { return !ts.hub.IsOnline(user.ID) })

	var presence struct {
		Online   bool       `json:"online"`
		LastSeen *time.Time `json:"lastSeen"`
	}
	eventually(t, func() bool {
		decode(t, ts.do(t, http.MethodGet, "/api/users/"+user.ID+"/presence", watcherToken, nil), http.StatusOK, &presence)
		return !presence.Online && presence.LastSeen != nil
	})
}
