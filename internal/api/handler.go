// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/authz"
	"github.com/ahmed2za/shaip-sub002/internal/backup"
	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/notification"
	"github.com/ahmed2za/shaip-sub002/internal/presence"
	"github.com/ahmed2za/shaip-sub002/internal/review"
)

// PresenceReader reads stored presence.
type PresenceReader interface {
	Get(ctx context.Context, userID string) (*presence.Status, error)
}

// OnlineChecker reports sockets connected to this instance.
type OnlineChecker interface {
	IsOnline(userID string) bool
	GetClientCount() int
}

// Dependencies are the services the HTTP layer calls into. Presence,
// Online, Realtime and Audit may be nil.
type Dependencies struct {
	Config        *config.Config
	DB            *database.DB
	JWT           *auth.JWTManager
	Accounts      *auth.Accounts
	Enforcer      *authz.Enforcer
	Notifications *notification.Service
	Reviews       *review.Service
	Backups       *backup.Manager
	Audit         *audit.Logger
	Presence      PresenceReader
	Online        OnlineChecker
	Realtime      http.Handler
}

// Handler implements the REST endpoints.
type Handler struct {
	db            *database.DB
	accounts      *auth.Accounts
	notifications *notification.Service
	reviews       *review.Service
	backups       *backup.Manager
	audit         *audit.Logger
	presence      PresenceReader
	online        OnlineChecker
	startTime     time.Time
}

// NewHandler creates the handler set.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		db:            deps.DB,
		accounts:      deps.Accounts,
		notifications: deps.Notifications,
		reviews:       deps.Reviews,
		backups:       deps.Backups,
		audit:         deps.Audit,
		presence:      deps.Presence,
		online:        deps.Online,
		startTime:     time.Now(),
	}
}

// caller returns the authenticated claims. Routes using it sit behind
// auth.Middleware.Authenticate, so a miss is a wiring bug.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required", nil)
		return nil, false
	}
	return claims, true
}

// targetUser resolves the userId query parameter. Empty means the caller;
// anybody else requires the admin role.
func targetUser(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (string, bool) {
	userID := r.URL.Query().Get("userId")
	if userID == "" || userID == claims.UserID {
		return claims.UserID, true
	}
	if !claims.IsAdmin() {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "cannot access another user's notifications", nil)
		return "", false
	}
	return userID, true
}

// auditAdmin records a privileged action by the authenticated caller.
func (h *Handler) auditAdmin(r *http.Request, t audit.EventType, targetType, targetID, description string, meta models.JSONMap) {
	var actorID, role string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actorID, role = claims.UserID, claims.Role
	}
	h.audit.LogAdminAction(r, actorID, role, t, targetType, targetID, description, meta)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	DatabaseDriver   string `json:"database_driver"`
	RealtimeClients  int    `json:"realtime_clients"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	DatabaseDuration string `json:"database_duration,omitempty"`
}

// Health reports 503 when the database does not answer.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:         "healthy",
		Database:       "connected",
		DatabaseDriver: h.db.Driver(),
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
	}
	if h.online != nil {
		resp.RealtimeClients = h.online.GetClientCount()
	}

	start := time.Now()
	err := h.db.Ping(ctx)
	resp.DatabaseDuration = time.Since(start).String()
	if err != nil {
		resp.Status = "degraded"
		resp.Database = "unavailable"
		respondJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}
