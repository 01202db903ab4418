// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package review holds the domain operations that raise notifications:
// review submission, replies and account moderation.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/notification"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Notifier is the part of the notification service used here.
type Notifier interface {
	CreateNotification(ctx context.Context, userID string, in notification.Input) (*models.Notification, error)
}

// ReviewInput is a submitted review.
type ReviewInput struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Title  string `json:"title" validate:"max=200"`
	Body   string `json:"body" validate:"notblank,max=5000"`
}

// CompanyInput is a company profile created by its owner.
type CompanyInput struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Website     string `json:"website" validate:"omitempty,url,max=2048"`
}

// Service runs the review workflows.
type Service struct {
	db       *database.DB
	notifier Notifier
	now      func() time.Time
}

// NewService creates the review service.
func NewService(db *database.DB, notifier Notifier) *Service {
	return &Service{
		db:       db,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func mapNotFound(err error, what string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// CreateCompany registers a company owned by ownerID. Reviews of it notify
// the owner.
func (s *Service) CreateCompany(ctx context.Context, ownerID string, in CompanyInput) (*models.Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	company := &models.Company{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Website:     strings.TrimSpace(in.Website),
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	logging.Ctx(ctx).Info().Str("company_id", company.ID).Str("owner_id", ownerID).Msg("Company created")
	return company, nil
}

// Submit stores a review, refreshes the company's rating and review count in
// the same transaction, then notifies the company owner.
func (s *Service) Submit(ctx context.Context, userID, companyID string, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Body:      strings.TrimSpace(in.Body),
		CreatedAt: s.now(),
	}

	var company *models.Company
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		company, err = tx.GetCompany(ctx, companyID)
		if err != nil {
			return mapNotFound(err, "company")
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		ratings, err := tx.ReviewRatings(ctx, companyID)
		if err != nil {
			return err
		}
		return tx.SetCompanyRating(ctx, companyID, averageRating(ratings), len(ratings))
	})
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	if company.OwnerID != "" && company.OwnerID != userID {
		s.notify(ctx, company.OwnerID, notification.Input{
			Type:    models.NotificationNewReview,
			Message: fmt.Sprintf("%s received a new %d-star review", company.Name, review.Rating),
			Link:    "/companies/" + company.ID + "/reviews/" + review.ID,
			Metadata: models.JSONMap{
				"companyId": company.ID,
				"reviewId":  review.ID,
				"rating":    review.Rating,
			},
		})
	}
	return review, nil
}

// averageRating is the plain arithmetic mean, 0 for no ratings.
func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// Reply attaches a comment to a review and tells the review's author, unless
// the author answered their own review.
func (s *Service) Reply(ctx context.Context, userID, reviewID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}

	review, err := s.db.GetReview(ctx, reviewID)
	if err != nil {
		return nil, mapNotFound(err, "review")
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		ReviewID:  reviewID,
		UserID:    userID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.db.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if review.UserID != userID {
		s.notify(ctx, review.UserID, notification.Input{
			Type:    models.NotificationReviewReply,
			Message: "Someone replied to your review",
			Link:    "/reviews/" + review.ID,
			Metadata: models.JSONMap{
				"reviewId":  review.ID,
				"commentId": comment.ID,
			},
		})
	}
	return comment, nil
}

// SetUserStatus applies a moderation decision. Blocking and verifying an
// account each notify its owner once, on the transition.
func (s *Service) SetUserStatus(ctx context.Context, userID string, status models.UserStatus, verified bool) (*models.User, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, "user")
	}
	before := *user

	if err := s.db.UpdateUserStatus(ctx, userID, status, verified); err != nil {
		return nil, mapNotFound(err, "user")
	}
	user.Status = status
	user.Verified = verified

	logging.Ctx(ctx).Info().
		Str("target_user_id", userID).
		Str("status", string(status)).
		Bool("verified", verified).
		Msg("User status changed")

	if status == models.UserBlocked && before.Status != models.UserBlocked {
		s.notify(ctx, userID, notification.Input{
			Type:    models.NotificationAccountBlocked,
			Message: "Your account has been blocked by an administrator",
		})
	}
	if verified && !before.Verified {
		s.notify(ctx, userID, notification.Input{
			Type:    models.NotificationAccountVerified,
			Message: "Your account has been verified",
		})
	}
	return user, nil
}

// notify never fails the calling operation.
func (s *Service) notify(ctx context.Context, userID string, in notification.Input) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.CreateNotification(ctx, userID, in); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", userID).
			Str("type", string(in.Type)).
			Msg("Failed to create notification")
	}
}
