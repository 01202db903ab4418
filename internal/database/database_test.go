// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUser(email string, status models.UserStatus) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleUser,
		Status:       status,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newNotification(userID string, at time.Time) *models.Notification {
	return &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.NotificationInfo,
		Message:   "hello",
		CreatedAt: at,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
	var versions int
	if err := db.conn.Get(&versions, `SELECT COUNT(*) FROM schema_version`); err != nil {
		t.Fatal(err)
	}
	if versions != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", versions, len(migrations))
	}
}

func TestNotifications_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := newNotification("u1", time.Now().UTC().Truncate(time.Microsecond))
	n.Link = "/reviews/r1"
	n.Metadata = models.JSONMap{"reviewId": "r1"}
	if err := db.InsertNotification(ctx, n); err != nil {
		t.Fatalf("InsertNotification() error = %v", err)
	}

	got, err := db.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification() error = %v", err)
	}
	if got.Read {
		t.Error("new notification should be unread")
	}
	if got.Link != n.Link || got.Metadata["reviewId"] != "r1" {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, n.CreatedAt)
	}

	if _, err := db.GetNotification(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetNotification(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMarkNotificationRead_Scoping(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := newNotification("owner", time.Now().UTC())
	if err := db.InsertNotification(ctx, n); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		id      string
		userID  string
		wantErr error
	}{
		{"other user", n.ID, "intruder", ErrNotFound},
		{"unknown id", "nope", "owner", ErrNotFound},
		{"owner", n.ID, "owner", nil},
		{"owner again is idempotent", n.ID, "owner", nil},
		{"unscoped", n.ID, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.MarkNotificationRead(ctx, tt.id, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MarkNotificationRead() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, _ := db.GetNotification(ctx, n.ID)
	if !got.Read {
		t.Error("notification should be read")
	}
}

func TestListNotifications_PaginationIsDisjointAndOrdered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	batch := make([]*models.Notification, 0, 25)
	for i := 0; i < 25; i++ {
		// pairs share a timestamp to exercise the id tie-break
		batch = append(batch, newNotification("u1", base.Add(time.Duration(i/2)*time.Minute)))
	}
	batch = append(batch, newNotification("u2", base))
	if err := db.InsertNotifications(ctx, batch); err != nil {
		t.Fatalf("InsertNotifications() error = %v", err)
	}

	seen := map[string]bool{}
	var prev *models.Notification
	for page := 0; page < 3; page++ {
		rows, err := db.ListNotifications(ctx, "u1", true, 10, page*10)
		if err != nil {
			t.Fatalf("ListNotifications() error = %v", err)
		}
		wantLen := 10
		if page == 2 {
			wantLen = 5
		}
		if len(rows) != wantLen {
			t.Fatalf("page %d len = %d, want %d", page, len(rows), wantLen)
		}
		for _, r := range rows {
			if seen[r.ID] {
				t.Fatalf("row %s returned twice", r.ID)
			}
			seen[r.ID] = true
			if prev != nil && (r.CreatedAt.After(prev.CreatedAt) ||
				(r.CreatedAt.Equal(prev.CreatedAt) && r.ID > prev.ID)) {
				t.Fatalf("rows out of order: %v/%s after %v/%s", r.CreatedAt, r.ID, prev.CreatedAt, prev.ID)
			}
			prev = r
		}
	}

	total, err := db.CountNotifications(ctx, "u1", true)
	if err != nil || total != 25 {
		t.Errorf("CountNotifications() = %d, %v; want 25", total, err)
	}
}

func TestMarkAllNotificationsRead_UnreadCount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := db.InsertNotification(ctx, newNotification("u1", time.Now().UTC())); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.InsertNotification(ctx, newNotification("u2", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	unread, _ := db.CountUnreadNotifications(ctx, "u1")
	if unread != 4 {
		t.Fatalf("unread = %d, want 4", unread)
	}

	changed, err := db.MarkAllNotificationsRead(ctx, "u1")
	if err != nil || changed != 4 {
		t.Fatalf("MarkAllNotificationsRead() = %d, %v; want 4", changed, err)
	}
	unread, _ = db.CountUnreadNotifications(ctx, "u1")
	if unread != 0 {
		t.Errorf("unread after mark all = %d, want 0", unread)
	}
	other, _ := db.CountUnreadNotifications(ctx, "u2")
	if other != 1 {
		t.Errorf("other user's unread = %d, want 1", other)
	}

	rows, _ := db.ListNotifications(ctx, "u1", false, 10, 0)
	if len(rows) != 0 {
		t.Errorf("unread listing = %d rows, want 0", len(rows))
	}
}

func TestDeleteNotification(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := newNotification("u1", time.Now().UTC())
	_ = db.InsertNotification(ctx, n)
	if err := db.DeleteNotification(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNotification() error = %v", err)
	}
	if err := db.DeleteNotification(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	active := newUser("Active@Misdaqia.sa", models.UserActive)
	blocked := newUser("blocked@misdaqia.sa", models.UserBlocked)
	caller := newUser("caller@misdaqia.sa", models.UserActive)
	for _, u := range []*models.User{active, blocked, caller} {
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}

	if err := db.CreateUser(ctx, newUser("active@misdaqia.sa", models.UserActive)); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	got, err := db.GetUserByEmail(ctx, "ACTIVE@misdaqia.sa")
	if err != nil || got.ID != active.ID {
		t.Fatalf("GetUserByEmail() = %v, %v", got, err)
	}

	ids, err := db.ActiveUserIDs(ctx, caller.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != active.ID {
		t.Errorf("ActiveUserIDs() = %v, want [%s]", ids, active.ID)
	}

	if err := db.UpdateUserStatus(ctx, blocked.ID, models.UserActive, true); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetUser(ctx, blocked.ID)
	if got.Status != models.UserActive || !got.Verified {
		t.Errorf("status update not applied: %+v", got)
	}
	if err := db.UpdateUserStatus(ctx, "ghost", models.UserActive, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUserStatus(ghost) error = %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	boom := fmt.Errorf("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.CreateUser(ctx, newUser("tx@misdaqia.sa", models.UserActive)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	users, _ := db.ListUsers(ctx)
	if len(users) != 0 {
		t.Errorf("users after rollback = %d, want 0", len(users))
	}
}

func TestCompaniesReviewsComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	c := &models.Company{ID: uuid.NewString(), OwnerID: "owner", Name: "Acme", CreatedAt: now}
	if err := db.CreateCompany(ctx, c); err != nil {
		t.Fatal(err)
	}
	for i, rating := range []int{5, 4} {
		r := &models.Review{ID: fmt.Sprintf("r%d", i), CompanyID: c.ID, UserID: "u", Rating: rating, CreatedAt: now}
		if err := db.CreateReview(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	ratings, err := db.ReviewRatings(ctx, c.ID)
	if err != nil || len(ratings) != 2 {
		t.Fatalf("ReviewRatings() = %v, %v", ratings, err)
	}
	if err := db.SetCompanyRating(ctx, c.ID, 4.5, 2); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetCompany(ctx, c.ID)
	if got.Rating != 4.5 || got.ReviewCount != 2 {
		t.Errorf("company = %+v", got)
	}

	if err := db.CreateComment(ctx, &models.Comment{ID: "c1", ReviewID: "r0", UserID: "owner", Body: "thanks", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	comments, _ := db.ListComments(ctx)
	if len(comments) != 1 || comments[0].ReviewID != "r0" {
		t.Errorf("comments = %+v", comments)
	}
}
