// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

const userColumns = `id, name, email, password_hash, role, status, verified, created_at`

// CreateUser inserts a user. Duplicate emails yield ErrConflict.
func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, string(u.Status), u.Verified, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser loads a user by id.
func (q *Queries) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var u models.User
	if err := sqlx.GetContext(ctx, q.ext, &u,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by (case-insensitive) email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var u models.User
	if err := sqlx.GetContext(ctx, q.ext, &u,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsers returns every user ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	out := []*models.User{}
	if err := sqlx.SelectContext(ctx, q.ext, &out,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// ActiveUserIDs returns the ids of all active accounts except excludeID.
func (q *Queries) ActiveUserIDs(ctx context.Context, excludeID string) ([]string, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	ids := []string{}
	if err := sqlx.SelectContext(ctx, q.ext, &ids,
		`SELECT id FROM users WHERE status = ? AND id <> ? ORDER BY id`,
		string(models.UserActive), excludeID); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}

// UpdateUserStatus sets moderation status and verification.
func (q *Queries) UpdateUserStatus(ctx context.Context, id string, status models.UserStatus, verified bool) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	res, err := q.ext.ExecContext(ctx,
		`UPDATE users SET status = ?, verified = ? WHERE id = ?`, string(status), verified, id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update user status: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsersExceptRole counts users whose role differs from role.
func (q *Queries) CountUsersExceptRole(ctx context.Context, role string) (int64, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var n int64
	if err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COUNT(*) FROM users WHERE role <> ?`, role); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// FirstUserIDWithRole returns the id of the oldest account with role, or
// ErrNotFound when there is none.
func (q *Queries) FirstUserIDWithRole(ctx context.Context, role string) (string, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var id string
	if err := sqlx.GetContext(ctx, q.ext, &id,
		`SELECT id FROM users WHERE role = ? ORDER BY created_at, id LIMIT 1`, role); err != nil {
		return "", notFound(err)
	}
	return id, nil
}
