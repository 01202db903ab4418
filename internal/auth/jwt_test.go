// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package auth

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

const testSecret = "test-secret-with-at-least-32-characters!"

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

var testUser = &models.User{ID: "u-1", Email: "sara@misdaqia.sa", Role: models.RoleCompany}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"empty secret", "", true},
		{"short secret", "too-short", true},
		{"valid secret", testSecret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: tt.secret})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewJWTManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t)

	token, expiresAt, err := m.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 || time.Until(expiresAt) > time.Hour {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != testUser.ID || claims.Email != testUser.Email || claims.Role != testUser.Role {
		t.Errorf("claims = %+v", claims)
	}
	if claims.IsAdmin() {
		t.Error("company account reported as admin")
	}

	userID, err := m.VerifyToken(token)
	if err != nil || userID != testUser.ID {
		t.Errorf("VerifyToken() = %q, %v", userID, err)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newTestManager(t)
	valid, _, _ := m.GenerateToken(testUser)

	other, _ := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 40)})
	foreign, _, _ := other.GenerateToken(testUser)

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := expired.GenerateToken(testUser)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"wrong secret", foreign},
		{"expired", stale},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) = %v", err)
	}

	random, err := RandomPasswordHash()
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(random, ""); err == nil {
		t.Error("random hash accepted an empty password")
	}
}
