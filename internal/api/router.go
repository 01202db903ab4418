// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/authz"
	"github.com/ahmed2za/shaip-sub002/internal/middleware"
)

// NewRouter wires every route.
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)
	mw := NewChiMiddleware(chiMiddlewareConfigFrom(&deps.Config.Security))
	authMW := auth.NewMiddleware(deps.JWT)
	authzMW := authz.NewMiddleware(deps.Enforcer)

	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// the socket authenticates with its first message
	if deps.Realtime != nil {
		r.Method(http.MethodGet, "/ws", deps.Realtime)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.SecurityHeaders)

		// ========================
		// Authentication
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitAuth())
			r.Post("/auth/login", h.Login)
			r.Post("/auth/register", h.Register)
		})

		// ========================
		// Authenticated API
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Use(authMW.Authenticate)

			r.Route("/notifications", func(r chi.Router) {
				read := authzMW.Require(authz.ObjectNotifications, authz.ActionRead)
				write := authzMW.Require(authz.ObjectNotifications, authz.ActionWrite)

				r.With(read).Get("/", h.ListNotifications)
				r.With(read).Get("/unread-count", h.UnreadCount)
				r.With(write).Put("/read-all", h.MarkAllAsRead)
				r.With(write).Put("/{id}/read", h.MarkAsRead)

				r.With(authzMW.Require(authz.ObjectNotificationsAdmin, authz.ActionWrite)).Post("/", h.CreateNotification)
				r.With(authzMW.Require(authz.ObjectNotificationsAdmin, authz.ActionDelete)).Delete("/{id}", h.DeleteNotification)
			})

			r.With(authzMW.Require(authz.ObjectCompanies, authz.ActionWrite)).
				Post("/companies", h.CreateCompany)
			r.With(authzMW.Require(authz.ObjectReviews, authz.ActionWrite)).
				Post("/companies/{id}/reviews", h.SubmitReview)
			r.With(authzMW.Require(authz.ObjectComments, authz.ActionWrite)).
				Post("/reviews/{id}/comments", h.ReplyToReview)
			r.With(authzMW.Require(authz.ObjectPresence, authz.ActionRead)).
				Get("/users/{id}/presence", h.UserPresence)

			// ========================
			// Admin
			// ========================
			r.Route("/admin", func(r chi.Router) {
				r.With(authzMW.Require(authz.ObjectNotificationsAdmin, authz.ActionWrite)).
					Post("/notifications/broadcast", h.BroadcastNotification)
				r.With(authzMW.Require(authz.ObjectUsers, authz.ActionWrite)).
					Put("/users/{id}/status", h.SetUserStatus)

				r.With(authzMW.Require(authz.ObjectBackup, authz.ActionWrite)).Post("/backup", h.CreateBackup)
				r.With(authzMW.Require(authz.ObjectBackup, authz.ActionWrite)).Put("/backup", h.RestoreBackup)
				r.With(authzMW.Require(authz.ObjectBackup, authz.ActionRead)).Get("/backups", h.ListBackups)

				r.With(authzMW.Require(authz.ObjectAudit, authz.ActionRead)).Get("/audit", h.ListAuditEvents)
			})
		})
	})

	return r
}
