// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package realtime

import (
	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// Message types for WebSocket communication
const (
	// client -> server
	MessageTypeAuth             = "auth"
	MessageTypeNotificationRead = "notification_read"

	// server -> client
	MessageTypeNotificationsInit = "notifications_init"
	MessageTypeNotification      = "notification"
	MessageTypeUserStatus        = "user_status"
	MessageTypeError             = "error"
)

// Presence states carried by user_status.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope is the wire format of every socket message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is an envelope whose payload is still a Go value.
type outbound struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// AuthPayload is sent by the client as its first message.
type AuthPayload struct {
	Token string `json:"token"`
}

// NotificationReadPayload asks the server to mark one row as read.
type NotificationReadPayload struct {
	NotificationID string `json:"notificationId"`
}

// NotificationsInitPayload carries the unread batch sent after auth.
type NotificationsInitPayload struct {
	Notifications []*models.Notification `json:"notifications"`
}

// UserStatusPayload announces a presence change.
type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// ErrorPayload explains why the server is about to close the socket.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MarshalMessage encodes a typed payload into a wire envelope.
func MarshalMessage(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(outbound{Type: messageType, Payload: payload})
}
