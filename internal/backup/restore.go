// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// Restore loads doc into a database that holds nothing but admin accounts.
// Every row gets a new id and relations are re-linked through old to new id
// maps. Rows owned by an exported admin go to adminID, or to the oldest admin
// of the target when adminID is empty. Rows referencing anything else absent
// from the document are skipped. The whole restore is one transaction.
func (m *Manager) Restore(ctx context.Context, doc *Document, adminID string) (result *RestoreResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackupOperation("restore", time.Since(start), err) }()

	if doc == nil || doc.Version != Version {
		version := ""
		if doc != nil {
			version = doc.Version
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}

	result = &RestoreResult{}
	err = m.db.WithTx(ctx, func(tx *database.Tx) error {
		users, err := tx.CountUsersExceptRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		rows, err := tx.CountDirectoryRows(ctx)
		if err != nil {
			return err
		}
		if users > 0 || rows > 0 {
			return ErrNotEmpty
		}

		r := &relinker{
			tx:        tx,
			result:    result,
			users:     make(map[string]string, len(doc.Data.Users)),
			companies: make(map[string]string, len(doc.Data.Companies)),
			reviews:   make(map[string]string, len(doc.Data.Reviews)),
		}
		if err := r.adoptAdmins(ctx, doc.Data.AdminIDs, adminID); err != nil {
			return err
		}
		if err := r.restoreUsers(ctx, doc.Data.Users); err != nil {
			return err
		}
		if err := r.restoreCompanies(ctx, doc.Data.Companies); err != nil {
			return err
		}
		if err := r.restoreReviews(ctx, doc.Data.Reviews); err != nil {
			return err
		}
		if err := r.restoreComments(ctx, doc.Data.Comments); err != nil {
			return err
		}
		return r.refreshRatings(ctx)
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Interface("restored", result.Restored).
		Interface("skipped", result.Skipped).
		Msg("Backup restored")
	return result, nil
}

// relinker carries the id maps of one restore.
type relinker struct {
	tx     *database.Tx
	result *RestoreResult

	users     map[string]string
	companies map[string]string
	reviews   map[string]string
}

// adoptAdmins maps every exported admin id onto one admin of the target.
func (r *relinker) adoptAdmins(ctx context.Context, exported []string, adminID string) error {
	if len(exported) == 0 {
		return nil
	}
	if adminID == "" {
		id, err := r.tx.FirstUserIDWithRole(ctx, models.RoleAdmin)
		if errors.Is(err, database.ErrNotFound) {
			logging.Warn().Int("admins", len(exported)).Msg("No admin in target; admin-owned rows will be skipped")
			return nil
		}
		if err != nil {
			return err
		}
		adminID = id
	}
	for _, id := range exported {
		r.users[id] = adminID
	}
	return nil
}

func (r *relinker) restoreUsers(ctx context.Context, users []*UserRecord) error {
	for _, rec := range users {
		if rec == nil || rec.Role == models.RoleAdmin {
			r.result.Skipped.Users++
			continue
		}
		role := rec.Role
		if role == "" {
			role = models.RoleUser
		}
		if !models.ValidRole(role) {
			logging.Warn().Str("email", rec.Email).Str("role", role).Msg("Skipping user with unknown role")
			r.result.Skipped.Users++
			continue
		}

		hash := rec.PasswordHash
		if hash == "" {
			var err error
			if hash, err = auth.RandomPasswordHash(); err != nil {
				return err
			}
		}
		status := rec.Status
		if !status.Valid() {
			status = models.UserActive
		}

		u := &models.User{
			ID:           uuid.NewString(),
			Name:         rec.Name,
			Email:        rec.Email,
			PasswordHash: hash,
			Role:         role,
			Status:       status,
			Verified:     rec.Verified,
			CreatedAt:    rec.CreatedAt,
		}
		if err := r.tx.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("restore user %s: %w", rec.Email, err)
		}
		r.users[rec.ID] = u.ID
		r.result.Restored.Users++
	}
	return nil
}

func (r *relinker) restoreCompanies(ctx context.Context, companies []*models.Company) error {
	for _, c := range companies {
		if c == nil {
			continue
		}
		ownerID, ok := r.users[c.OwnerID]
		if !ok {
			logging.Warn().Str("company_id", c.ID).Msg("Skipping company whose owner is not in the backup")
			r.result.Skipped.Companies++
			continue
		}

		restored := *c
		restored.ID = uuid.NewString()
		restored.OwnerID = ownerID
		if err := r.tx.CreateCompany(ctx, &restored); err != nil {
			return fmt.Errorf("restore company %s: %w", c.ID, err)
		}
		r.companies[c.ID] = restored.ID
		r.result.Restored.Companies++
	}
	return nil
}

func (r *relinker) restoreReviews(ctx context.Context, reviews []*models.Review) error {
	for _, rv := range reviews {
		if rv == nil {
			continue
		}
		companyID, okCompany := r.companies[rv.CompanyID]
		userID, okUser := r.users[rv.UserID]
		if !okCompany || !okUser {
			logging.Warn().Str("review_id", rv.ID).Msg("Skipping review with unresolved references")
			r.result.Skipped.Reviews++
			continue
		}

		restored := *rv
		restored.ID = uuid.NewString()
		restored.CompanyID = companyID
		restored.UserID = userID
		if err := r.tx.CreateReview(ctx, &restored); err != nil {
			return fmt.Errorf("restore review %s: %w", rv.ID, err)
		}
		r.reviews[rv.ID] = restored.ID
		r.result.Restored.Reviews++
	}
	return nil
}

func (r *relinker) restoreComments(ctx context.Context, comments []*models.Comment) error {
	for _, c := range comments {
		if c == nil {
			continue
		}
		reviewID, okReview := r.reviews[c.ReviewID]
		userID, okUser := r.users[c.UserID]
		if !okReview || !okUser {
			logging.Warn().Str("comment_id", c.ID).Msg("Skipping comment with unresolved references")
			r.result.Skipped.Comments++
			continue
		}

		restored := *c
		restored.ID = uuid.NewString()
		restored.ReviewID = reviewID
		restored.UserID = userID
		if err := r.tx.CreateComment(ctx, &restored); err != nil {
			return fmt.Errorf("restore comment %s: %w", c.ID, err)
		}
		r.result.Restored.Comments++
	}
	return nil
}

// refreshRatings recomputes the aggregates of every restored company, since
// skipped reviews leave the exported values stale.
func (r *relinker) refreshRatings(ctx context.Context) error {
	for _, id := range r.companies {
		if err := r.tx.RefreshCompanyRating(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
