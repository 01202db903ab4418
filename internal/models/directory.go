// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package models

import "time"

// Role names. They double as casbin subjects.
const (
	RoleUser    = "user"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the account roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleCompany || role == RoleAdmin
}

// UserStatus is the moderation state of an account.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
	UserPending UserStatus = "pending"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBlocked || s == UserPending
}

// User is a platform account. PasswordHash never leaves the server.
type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	Verified     bool       `json:"verified" db:"verified"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// Company is a reviewed business owned by a company account.
type Company struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Website     string    `json:"website" db:"website"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"reviewCount" db:"review_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Review is a star rating with text left by a user for a company.
type Review struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"companyId" db:"company_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Comment is a reply attached to a review.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	ReviewID  string    `json:"reviewId" db:"review_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
