// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// Queries holds the repository methods shared by DB and Tx.
type Queries struct {
	ext    sqlx.ExtContext
	ensure func(context.Context) (context.Context, context.CancelFunc)
}

const notificationColumns = `id, user_id, type, message, link, metadata, is_read, created_at`

const insertNotificationSQL = `INSERT INTO notifications (` + notificationColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// InsertNotification stores one notification row.
func (q *Queries) InsertNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx, insertNotificationSQL,
		n.ID, n.UserID, string(n.Type), n.Message, n.Link, n.Metadata, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// InsertNotifications stores a batch of rows on the current connection or
// transaction. DB.InsertNotifications wraps this in its own transaction.
func (q *Queries) InsertNotifications(ctx context.Context, batch []*models.Notification) error {
	for _, n := range batch {
		if err := q.InsertNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// InsertNotifications stores a batch of rows atomically.
func (db *DB) InsertNotifications(ctx context.Context, batch []*models.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	return db.WithTx(ctx, func(tx *Tx) error {
		return tx.Queries.InsertNotifications(ctx, batch)
	})
}

// GetNotification loads one row by id.
func (q *Queries) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var n models.Notification
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

// MarkNotificationRead sets the read flag on one row. A non-empty userID
// restricts the update to that user's rows. Returns ErrNotFound when nothing
// matched.
func (q *Queries) MarkNotificationRead(ctx context.Context, id, userID string) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	res, err := q.ext.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND (? = '' OR user_id = ?)`,
		id, userID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips every unread row of the user and returns
// how many changed.
func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	res, err := q.ext.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

// DeleteNotification hard-deletes one row.
func (q *Queries) DeleteNotification(ctx context.Context, id string) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	res, err := q.ext.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnreadNotifications counts the user's unread rows.
func (q *Queries) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	return q.CountNotifications(ctx, userID, false)
}

// CountNotifications counts the user's rows, optionally only unread ones.
func (q *Queries) CountNotifications(ctx context.Context, userID string, includeRead bool) (int64, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ?`
	if !includeRead {
		query += ` AND is_read = FALSE`
	}
	var total int64
	if err := sqlx.GetContext(ctx, q.ext, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return total, nil
}

// ListNotifications returns one newest-first slice of the user's rows.
// Ties on created_at are broken by id so pages never overlap.
func (q *Queries) ListNotifications(ctx context.Context, userID string, includeRead bool, limit, offset int) ([]*models.Notification, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if !includeRead {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	out := []*models.Notification{}
	if err := sqlx.SelectContext(ctx, q.ext, &out, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
