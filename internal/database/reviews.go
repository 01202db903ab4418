// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

const (
	companyColumns = `id, owner_id, name, description, website, rating, review_count, created_at`
	reviewColumns  = `id, company_id, user_id, rating, title, body, created_at`
	commentColumns = `id, review_id, user_id, body, created_at`
)

// CreateCompany inserts a company.
func (q *Queries) CreateCompany(ctx context.Context, c *models.Company) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.Website, c.Rating, c.ReviewCount, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetCompany loads a company by id.
func (q *Queries) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var c models.Company
	if err := sqlx.GetContext(ctx, q.ext, &c,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListCompanies returns every company ordered by creation time.
func (q *Queries) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	out := []*models.Company{}
	if err := sqlx.SelectContext(ctx, q.ext, &out,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

// SetCompanyRating stores the aggregated rating of a company.
func (q *Queries) SetCompanyRating(ctx context.Context, id string, rating float64, count int) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	if _, err := q.ext.ExecContext(ctx,
		`UPDATE companies SET rating = ?, review_count = ? WHERE id = ?`, rating, count, id); err != nil {
		return fmt.Errorf("update company rating: %w", err)
	}
	return nil
}

// CreateReview inserts a review.
func (q *Queries) CreateReview(ctx context.Context, r *models.Review) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CompanyID, r.UserID, r.Rating, r.Title, r.Body, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetReview loads a review by id.
func (q *Queries) GetReview(ctx context.Context, id string) (*models.Review, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var r models.Review
	if err := sqlx.GetContext(ctx, q.ext, &r,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ReviewRatings returns every star rating given to a company.
func (q *Queries) ReviewRatings(ctx context.Context, companyID string) ([]int, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	ratings := []int{}
	if err := sqlx.SelectContext(ctx, q.ext, &ratings,
		`SELECT rating FROM reviews WHERE company_id = ?`, companyID); err != nil {
		return nil, fmt.Errorf("list review ratings: %w", err)
	}
	return ratings, nil
}

// ListReviews returns every review ordered by creation time.
func (q *Queries) ListReviews(ctx context.Context) ([]*models.Review, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	out := []*models.Review{}
	if err := sqlx.SelectContext(ctx, q.ext, &out,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

// CreateComment inserts a comment.
func (q *Queries) CreateComment(ctx context.Context, c *models.Comment) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ReviewID, c.UserID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns every comment ordered by creation time.
func (q *Queries) ListComments(ctx context.Context) ([]*models.Comment, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	out := []*models.Comment{}
	if err := sqlx.SelectContext(ctx, q.ext, &out,
		`SELECT `+commentColumns+` FROM comments ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

// CountDirectoryRows counts companies, reviews and comments together.
func (q *Queries) CountDirectoryRows(ctx context.Context) (int64, error) {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	var n int64
	if err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT (SELECT COUNT(*) FROM companies) + (SELECT COUNT(*) FROM reviews) + (SELECT COUNT(*) FROM comments)`); err != nil {
		return 0, fmt.Errorf("count directory rows: %w", err)
	}
	return n, nil
}

// RefreshCompanyRating recomputes a company's rating and review count from
// its stored reviews.
func (q *Queries) RefreshCompanyRating(ctx context.Context, id string) error {
	ctx, cancel := q.ensure(ctx)
	defer cancel()

	_, err := q.ext.ExecContext(ctx, `
UPDATE companies SET
	rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE company_id = ?), 0),
	review_count = (SELECT COUNT(*) FROM reviews WHERE company_id = ?)
WHERE id = ?`, id, id, id)
	if err != nil {
		return fmt.Errorf("refresh company rating: %w", err)
	}
	return nil
}
