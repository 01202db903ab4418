// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/testinfra"
)

func TestAccounts_RegisterAndLogin(t *testing.T) {
	db := testinfra.NewTestDB(t)
	m := newTestManager(t)
	accounts := NewAccounts(db, m)
	ctx := context.Background()

	u, err := accounts.Register(ctx, "Sara", " Sara@Misdaqia.sa ", "s3cret-pass", models.RoleUser)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Email != "sara@misdaqia.sa" || u.Status != models.UserActive {
		t.Errorf("user = %+v", u)
	}
	if _, err := accounts.Register(ctx, "Other", "sara@misdaqia.sa", "x-password", models.RoleUser); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v", err)
	}

	session, err := accounts.Login(ctx, "sara@misdaqia.sa", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if userID, err := m.VerifyToken(session.Token); err != nil || userID != u.ID {
		t.Errorf("token resolves to %q, %v", userID, err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "sara@misdaqia.sa", "nope"},
		{"unknown email", "ghost@misdaqia.sa", "s3cret-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := accounts.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	if err := db.UpdateUserStatus(ctx, u.ID, models.UserBlocked, false); err != nil {
		t.Fatal(err)
	}
	if _, err := accounts.Login(ctx, "sara@misdaqia.sa", "s3cret-pass"); !errors.Is(err, ErrAccountBlocked) {
		t.Errorf("blocked Login() error = %v", err)
	}
}

func TestAccounts_EnsureAdmin(t *testing.T) {
	db := testinfra.NewTestDB(t)
	accounts := NewAccounts(db, newTestManager(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := accounts.EnsureAdmin(ctx, "admin@misdaqia.sa", "admin-password"); err != nil {
			t.Fatalf("EnsureAdmin() #%d error = %v", i, err)
		}
	}
	users, _ := db.ListUsers(ctx)
	if len(users) != 1 || users[0].Role != models.RoleAdmin {
		t.Errorf("users = %+v", users)
	}
	if err := accounts.EnsureAdmin(ctx, "", ""); err != nil {
		t.Errorf("EnsureAdmin(empty) error = %v", err)
	}
}
