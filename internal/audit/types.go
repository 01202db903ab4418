// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package audit

import (
	"context"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// EventType categorizes audit events.
type EventType string

const (
	EventLogin               EventType = "auth.login"
	EventLoginFailed         EventType = "auth.login_failed"
	EventRegistered          EventType = "user.registered"
	EventUserStatusChanged   EventType = "user.status_changed"
	EventNotificationCreated EventType = "notification.created"
	EventNotificationDeleted EventType = "notification.deleted"
	EventBroadcast           EventType = "notification.broadcast"
	EventBackupCreated       EventType = "data.backup"
	EventBackupRestored      EventType = "data.restore"
)

// Outcome tells whether the audited action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit record.
type Event struct {
	ID          string         `json:"id" db:"id"`
	Timestamp   time.Time      `json:"timestamp" db:"occurred_at"`
	Type        EventType      `json:"type" db:"type"`
	Outcome     Outcome        `json:"outcome" db:"outcome"`
	ActorID     string         `json:"actorId,omitempty" db:"actor_id"`
	ActorRole   string         `json:"actorRole,omitempty" db:"actor_role"`
	TargetType  string         `json:"targetType,omitempty" db:"target_type"`
	TargetID    string         `json:"targetId,omitempty" db:"target_id"`
	SourceIP    string         `json:"sourceIp,omitempty" db:"source_ip"`
	UserAgent   string         `json:"userAgent,omitempty" db:"user_agent"`
	Description string         `json:"description" db:"description"`
	Metadata    models.JSONMap `json:"metadata,omitempty" db:"metadata"`
	RequestID   string         `json:"requestId,omitempty" db:"request_id"`
}

// Filter narrows a query. Zero fields match everything; results are newest
// first.
type Filter struct {
	Types    []EventType
	ActorID  string
	TargetID string
	Since    *time.Time
	Limit    int
}

// DefaultLimit caps a query without an explicit limit.
const DefaultLimit = 100

// MaxLimit is the largest limit a query may ask for.
const MaxLimit = 1000

// Store persists audit events.
type Store interface {
	SaveAuditEvent(ctx context.Context, e *Event) error
	QueryAuditEvents(ctx context.Context, f Filter) ([]Event, error)
	DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f Filter) matches(e *Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

// EffectiveLimit applies DefaultLimit and MaxLimit.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}
