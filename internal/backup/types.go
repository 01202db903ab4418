// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package backup

import (
	"errors"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// Version is the only document version Restore accepts.
const Version = "1.0"

var (
	// ErrNotEmpty is returned when the target already holds non-admin users.
	ErrNotEmpty = errors.New("restore target is not empty")

	// ErrUnsupportedVersion is returned for documents of another version.
	ErrUnsupportedVersion = errors.New("unsupported backup version")

	// ErrFileNotFound is returned by Open for an unknown backup file.
	ErrFileNotFound = errors.New("backup file not found")
)

// Document is the backup file format.
type Document struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      Data      `json:"data"`
}

// Data holds the exported tables. Notifications are not part of a backup.
type Data struct {
	Users     []*UserRecord     `json:"users"`
	Companies []*models.Company `json:"companies"`
	Reviews   []*models.Review  `json:"reviews"`
	Comments  []*models.Comment `json:"comments"`

	// AdminIDs lists the admins present at export time. Admin accounts are
	// not exported; rows they own are handed to an admin of the target.
	AdminIDs []string `json:"adminIds,omitempty"`
}

// UserRecord is a user as exported, password hash included.
type UserRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"passwordHash,omitempty"`
	Role         string            `json:"role"`
	Status       models.UserStatus `json:"status"`
	Verified     bool              `json:"verified"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func recordFromUser(u *models.User) *UserRecord {
	return &UserRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		Verified:     u.Verified,
		CreatedAt:    u.CreatedAt,
	}
}

// Counts is the number of rows per table.
type Counts struct {
	Users     int `json:"users"`
	Companies int `json:"companies"`
	Reviews   int `json:"reviews"`
	Comments  int `json:"comments"`
}

// RestoreResult reports what Restore inserted and what it had to drop
// because a referenced row was not in the document.
type RestoreResult struct {
	Restored Counts `json:"restored"`
	Skipped  Counts `json:"skipped"`
}

// FileInfo describes a backup written to the backup directory.
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
