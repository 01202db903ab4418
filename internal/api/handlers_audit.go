// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
)

// ListAuditEvents returns audit events, newest first. Query parameters:
// type (comma separated), actorId, targetId, since (RFC 3339) and limit.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail is disabled", nil)
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		ActorID:  q.Get("actorId"),
		TargetID: q.Get("targetId"),
		Limit:    getIntParam(r, "limit", audit.DefaultLimit),
	}
	if types := q.Get("type"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, audit.EventType(t))
			}
		}
	}
	if since := q.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp", nil)
			return
		}
		f.Since = &ts
	}

	events, err := h.audit.Query(r.Context(), f)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to read audit events", err)
		return
	}
	respondJSON(w, r, http.StatusOK, events)
}
