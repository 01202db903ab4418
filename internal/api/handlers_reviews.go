// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/presence"
	"github.com/ahmed2za/shaip-sub002/internal/review"
)

// CommentRequest is the POST /api/reviews/{id}/comments body.
type CommentRequest struct {
	Body string `json:"body" validate:"notblank,max=5000"`
}

// UserStatusRequest is the PUT /api/admin/users/{id}/status body.
type UserStatusRequest struct {
	Status   models.UserStatus `json:"status" validate:"required,user_status"`
	Verified bool              `json:"verified"`
}

// PresenceResponse is the presence payload.
type PresenceResponse struct {
	UserID   string      `json:"userId"`
	Online   bool        `json:"online"`
	LastSeen interface{} `json:"lastSeen"`
}

func respondReviewError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, review.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, review.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to "+action, err)
	}
}

// CreateCompany registers a company owned by the caller.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req review.CompanyInput
	if !decodeBody(w, r, &req) {
		return
	}

	company, err := h.reviews.CreateCompany(r.Context(), claims.UserID, req)
	if err != nil {
		respondReviewError(w, r, err, "create company")
		return
	}
	respondJSON(w, r, http.StatusCreated, company)
}

// SubmitReview reviews a company as the caller.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req review.ReviewInput
	if !decodeBody(w, r, &req) {
		return
	}

	rv, err := h.reviews.Submit(r.Context(), claims.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		respondReviewError(w, r, err, "submit review")
		return
	}
	respondJSON(w, r, http.StatusCreated, rv)
}

// ReplyToReview comments on a review as the caller.
func (h *Handler) ReplyToReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.reviews.Reply(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.Body)
	if err != nil {
		respondReviewError(w, r, err, "reply to review")
		return
	}
	respondJSON(w, r, http.StatusCreated, comment)
}

// SetUserStatus applies a moderation decision.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req UserStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.reviews.SetUserStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Verified)
	if err != nil {
		respondReviewError(w, r, err, "update user status")
		return
	}
	h.auditAdmin(r, audit.EventUserStatusChanged, "user", user.ID, "account status changed",
		models.JSONMap{"status": string(user.Status), "verified": user.Verified})
	respondJSON(w, r, http.StatusOK, user)
}

// UserPresence reports whether a user is connected and when they were last
// seen. A socket on this instance counts as online even before the store
// catches up.
func (h *Handler) UserPresence(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	resp := PresenceResponse{UserID: userID}

	if h.presence != nil {
		status, err := h.presence.Get(r.Context(), userID)
		switch {
		case err == nil:
			resp.Online = status.Online
			if status.LastSeen != nil {
				resp.LastSeen = status.LastSeen
			}
		case errors.Is(err, presence.ErrUnknown):
		default:
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to read presence", err)
			return
		}
	}
	if h.online != nil && h.online.IsOnline(userID) {
		resp.Online = true
	}
	respondJSON(w, r, http.StatusOK, resp)
}
