// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"errors"
	"net/http"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the POST /api/auth/register body. AccountType picks
// between a reviewer and a company account; admins are never self-registered.
type RegisterRequest struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Email       string `json:"email" validate:"required,email,max=320"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	AccountType string `json:"accountType" validate:"omitempty,oneof=user company"`
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.audit.LogAuth(r, audit.EventLoginFailed, audit.OutcomeFailure, "", "", "invalid credentials")
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password", nil)
		return
	case errors.Is(err, auth.ErrAccountBlocked):
		h.audit.LogAuth(r, audit.EventLoginFailed, audit.OutcomeFailure, "", "", "account blocked")
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "account is blocked", nil)
		return
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "login failed", err)
		return
	}

	h.audit.LogAuth(r, audit.EventLogin, audit.OutcomeSuccess, session.User.ID, session.User.Role, "signed in")
	logging.Ctx(r.Context()).Info().Str("user_id", session.User.ID).Msg("User logged in")
	respondJSON(w, r, http.StatusOK, session)
}

// Register creates an account. The caller signs in separately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role := models.RoleUser
	if req.AccountType == models.RoleCompany {
		role = models.RoleCompany
	}

	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "email already registered", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "registration failed", err)
		return
	}

	h.audit.LogAuth(r, audit.EventRegistered, audit.OutcomeSuccess, user.ID, role, "account registered")
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Str("role", role).Msg("Account registered")
	respondJSON(w, r, http.StatusCreated, user)
}
