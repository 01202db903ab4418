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
	"github.com/ahmed2za/shaip-sub002/internal/notification"
)

// CreateNotificationRequest is the admin POST /api/notifications body.
type CreateNotificationRequest struct {
	UserID string `json:"userId" validate:"required"`
	notification.Input
}

// BroadcastRequest is the POST /api/admin/notifications/broadcast body.
// A missing ExcludeUserID excludes the calling admin.
type BroadcastRequest struct {
	notification.Input
	ExcludeUserID *string `json:"excludeUserId,omitempty"`
}

// UnreadCountResponse is the unread-count payload.
type UnreadCountResponse struct {
	UserID string `json:"userId"`
	Count  int64  `json:"count"`
}

// MarkAllResponse reports how many rows flipped to read.
type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}

// BroadcastResponse reports how many rows a broadcast created.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}

// respondNotificationError maps service errors to status codes.
func respondNotificationError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "notification not found", nil)
	case errors.Is(err, notification.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to "+action, err)
	}
}

// ListNotifications returns one page, newest first. includeRead defaults to true.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	userID, ok := targetUser(w, r, claims)
	if !ok {
		return
	}

	page, err := h.notifications.GetUserNotifications(r.Context(), userID, notification.ListOptions{
		Page:        getIntParam(r, "page", 1),
		Limit:       getIntParam(r, "limit", 0),
		IncludeRead: getBoolParam(r, "includeRead", true),
	})
	if err != nil {
		respondNotificationError(w, r, err, "list notifications")
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

// UnreadCount returns the exact unread count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	userID, ok := targetUser(w, r, claims)
	if !ok {
		return
	}

	count, err := h.notifications.GetUnreadCount(r.Context(), userID)
	if err != nil {
		respondNotificationError(w, r, err, "count notifications")
		return
	}
	respondJSON(w, r, http.StatusOK, UnreadCountResponse{UserID: userID, Count: count})
}

// MarkAsRead marks one of the caller's rows read. Admins may mark any row.
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	scope := claims.UserID
	if claims.IsAdmin() {
		scope = ""
	}
	n, err := h.notifications.MarkAsRead(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		respondNotificationError(w, r, err, "mark notification read")
		return
	}
	respondJSON(w, r, http.StatusOK, n)
}

// MarkAllAsRead marks every unread row of the target user read.
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	userID, ok := targetUser(w, r, claims)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		respondNotificationError(w, r, err, "mark notifications read")
		return
	}
	respondJSON(w, r, http.StatusOK, MarkAllResponse{Updated: updated})
}

// CreateNotification creates one row for a user and pushes it.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := h.notifications.CreateNotification(r.Context(), req.UserID, req.Input)
	if err != nil {
		respondNotificationError(w, r, err, "create notification")
		return
	}
	h.auditAdmin(r, audit.EventNotificationCreated, "user", req.UserID, "notification sent",
		models.JSONMap{"notificationId": n.ID, "type": string(n.Type)})
	respondJSON(w, r, http.StatusCreated, n)
}

// DeleteNotification hard-deletes a row.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.notifications.DeleteNotification(r.Context(), id); err != nil {
		respondNotificationError(w, r, err, "delete notification")
		return
	}
	h.auditAdmin(r, audit.EventNotificationDeleted, "notification", id, "notification deleted", nil)
	respondJSON(w, r, http.StatusOK, map[string]string{"id": id})
}

// BroadcastNotification creates a row for every active user but the
// excluded one and pushes it to every connected socket but theirs.
func (h *Handler) BroadcastNotification(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req BroadcastRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exclude := claims.UserID
	if req.ExcludeUserID != nil {
		exclude = *req.ExcludeUserID
	}

	batch, err := h.notifications.CreateBroadcastNotification(r.Context(), req.Input, exclude)
	if err != nil {
		respondNotificationError(w, r, err, "broadcast notification")
		return
	}
	h.auditAdmin(r, audit.EventBroadcast, "notification", "", "broadcast sent",
		models.JSONMap{"recipients": len(batch), "excludeUserId": exclude, "type": string(req.Type)})
	respondJSON(w, r, http.StatusCreated, BroadcastResponse{Recipients: len(batch)})
}
