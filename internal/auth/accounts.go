// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

var (
	// ErrEmailTaken is returned by Register for an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountBlocked is returned by Login for blocked accounts.
	ErrAccountBlocked = errors.New("account is blocked")
)

// AccountStore is the user persistence used by Accounts.
type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Accounts registers users and signs them in.
type Accounts struct {
	store AccountStore
	jwt   *JWTManager
}

// NewAccounts creates the account service.
func NewAccounts(store AccountStore, jwtManager *JWTManager) *Accounts {
	return &Accounts{store: store, jwt: jwtManager}
}

// Register creates an active account with role.
func (a *Accounts) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues a token.
func (a *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := a.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	if u.Status == models.UserBlocked {
		return nil, ErrAccountBlocked
	}

	token, expiresAt, err := a.jwt.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (a *Accounts) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := a.store.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	u, err := a.Register(ctx, "Administrator", email, password, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logging.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("Bootstrap admin account created")
	return nil
}
