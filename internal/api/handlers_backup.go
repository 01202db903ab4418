// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/backup"
	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// CreateBackupResponse is the document plus the file it was written to.
type CreateBackupResponse struct {
	File     string           `json:"file,omitempty"`
	Document *backup.Document `json:"document"`
}

// CreateBackup exports users, companies, reviews and comments.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	doc, name, err := h.backups.Create(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to create backup", err)
		return
	}
	h.auditAdmin(r, audit.EventBackupCreated, "backup", name, "backup created", models.JSONMap{
		"users": len(doc.Data.Users), "companies": len(doc.Data.Companies),
		"reviews": len(doc.Data.Reviews), "comments": len(doc.Data.Comments),
	})
	respondJSON(w, r, http.StatusOK, CreateBackupResponse{File: name, Document: doc})
}

// RestoreBackup imports a document into an empty database. The body is the
// document itself, or {"file": "backup-....json"} to restore a stored one.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
		return
	}

	var ref struct {
		File string `json:"file"`
	}
	var doc *backup.Document
	if err := json.Unmarshal(raw, &ref); err == nil && ref.File != "" {
		opened, err := h.backups.Open(ref.File)
		if err != nil {
			if errors.Is(err, backup.ErrFileNotFound) {
				respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "backup file not found", nil)
				return
			}
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "cannot read backup file", err)
			return
		}
		doc = opened
	} else {
		doc = &backup.Document{}
		if err := json.Unmarshal(raw, doc); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid backup document", err)
			return
		}
	}

	adminID := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		adminID = claims.UserID
	}
	result, err := h.backups.Restore(r.Context(), doc, adminID)
	switch {
	case err == nil:
	case errors.Is(err, backup.ErrUnsupportedVersion):
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unsupported backup version", nil)
		return
	case errors.Is(err, backup.ErrNotEmpty):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "database is not empty", nil)
		return
	case errors.Is(err, database.ErrConflict):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "backup contains duplicate records", err)
		return
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to restore backup", err)
		return
	}

	h.auditAdmin(r, audit.EventBackupRestored, "backup", ref.File, "backup restored", models.JSONMap{
		"users": result.Restored.Users, "companies": result.Restored.Companies,
		"reviews": result.Restored.Reviews, "comments": result.Restored.Comments,
	})
	respondJSON(w, r, http.StatusOK, result)
}

// ListBackups lists stored backup files, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	files, err := h.backups.List()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to list backups", err)
		return
	}
	respondJSON(w, r, http.StatusOK, files)
}
