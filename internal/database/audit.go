// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
)

const auditColumns = `id, occurred_at, type, outcome, actor_id, actor_role, target_type, target_id,
	source_ip, user_agent, description, metadata, request_id`

// SaveAuditEvent stores one audit event.
func (q *Queries) SaveAuditEvent(ctx context.Context, e *audit.Event) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO audit_events (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, string(e.Type), string(e.Outcome), e.ActorID, e.ActorRole, e.TargetType, e.TargetID,
		e.SourceIP, e.UserAgent, e.Description, e.Metadata, e.RequestID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// QueryAuditEvents returns matching events, newest first.
func (q *Queries) QueryAuditEvents(ctx context.Context, f audit.Filter) ([]audit.Event, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.TargetID != "" {
		where = append(where, "target_id = ?")
		args = append(args, f.TargetID)
	}
	if f.Since != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, *f.Since)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY occurred_at DESC, id DESC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	out := []audit.Event{}
	if err := sqlx.SelectContext(ctx, q.ext, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return out, nil
}

// DeleteAuditEventsBefore removes events older than cutoff.
func (q *Queries) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	res, err := q.ext.ExecContext(ctx, `DELETE FROM audit_events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	return n, nil
}
