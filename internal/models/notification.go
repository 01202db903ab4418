// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// NotificationType is the kind of a notification.
type NotificationType string

const (
	NotificationInfo            NotificationType = "info"
	NotificationSuccess         NotificationType = "success"
	NotificationWarning         NotificationType = "warning"
	NotificationError           NotificationType = "error"
	NotificationAccountBlocked  NotificationType = "account_blocked"
	NotificationAccountVerified NotificationType = "account_verified"
	NotificationNewReview       NotificationType = "new_review"
	NotificationReviewReply     NotificationType = "review_reply"
	NotificationBroadcast       NotificationType = "broadcast"
)

// NotificationTypes lists every accepted type, in display order.
var NotificationTypes = []NotificationType{
	NotificationInfo,
	NotificationSuccess,
	NotificationWarning,
	NotificationError,
	NotificationAccountBlocked,
	NotificationAccountVerified,
	NotificationNewReview,
	NotificationReviewReply,
	NotificationBroadcast,
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is one message directed at one user. Only Read ever changes
// after creation, and only from false to true.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	Link      string           `json:"link,omitempty" db:"link"`
	Metadata  JSONMap          `json:"metadata,omitempty" db:"metadata"`
	Read      bool             `json:"read" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// JSONMap is free-form key/value metadata persisted as JSON text.
type JSONMap map[string]interface{}

// Value implements driver.Valuer. Empty maps are stored as NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}
	*m = out
	return nil
}

// NotificationPage is one offset page of a user's notifications.
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Total         int64           `json:"total"`
	Page          int             `json:"page"`
	Limit         int             `json:"limit"`
	TotalPages    int             `json:"totalPages"`
}
