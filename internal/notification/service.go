// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package notification creates, lists and updates user notifications and
// hands freshly created rows to the realtime layer.
//
// Persistence is the only guarantee. A push that cannot be delivered is
// logged and dropped; clients recover the row through the paginated REST
// listing.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

var (
	// ErrNotFound is returned when the notification does not exist or does
	// not belong to the calling user.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidInput is returned for a missing user, unknown type or empty
	// message.
	ErrInvalidInput = errors.New("invalid notification input")
)

const (
	maxMessageLength = 1000

	DefaultPageSize = 20
	MaxPageSize     = 100
	InitBatchSize   = 50
)

// Store is the persistence the service needs. *database.DB satisfies it.
type Store interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	InsertNotifications(ctx context.Context, batch []*models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
	CountNotifications(ctx context.Context, userID string, includeRead bool) (int64, error)
	ListNotifications(ctx context.Context, userID string, includeRead bool, limit, offset int) ([]*models.Notification, error)
}

// UserDirectory resolves broadcast recipients.
type UserDirectory interface {
	ActiveUserIDs(ctx context.Context, excludeID string) ([]string, error)
}

// Deliverer pushes persisted rows to connected clients. Implemented by the
// realtime hub and by the cross-instance relay.
type Deliverer interface {
	SendNotification(ctx context.Context, userID string, n *models.Notification) error
	BroadcastNotification(ctx context.Context, batch []*models.Notification, excludeUserID string) error
}

// Input describes a notification to create.
type Input struct {
	Type     models.NotificationType `json:"type" validate:"required"`
	Message  string                  `json:"message" validate:"required,max=1000"`
	Link     string                  `json:"link,omitempty" validate:"omitempty,max=2048"`
	Metadata models.JSONMap          `json:"metadata,omitempty"`
}

// ListOptions controls GetUserNotifications paging.
type ListOptions struct {
	Page        int
	Limit       int
	IncludeRead bool
}

// Config tunes paging limits.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	InitBatchSize   int
}

// Service is the single entry point for notification rows.
type Service struct {
	store     Store
	users     UserDirectory
	deliverer Deliverer
	cfg       Config
	now       func() time.Time
}

// NewService wires a service. deliverer may be nil (no realtime push).
func NewService(store Store, users UserDirectory, deliverer Deliverer, cfg Config) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	if cfg.InitBatchSize <= 0 {
		cfg.InitBatchSize = InitBatchSize
	}
	return &Service{
		store:     store,
		users:     users,
		deliverer: deliverer,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// SetDeliverer replaces the realtime target. Used at startup once the hub or
// relay exists.
func (s *Service) SetDeliverer(d Deliverer) {
	s.deliverer = d
}

func (in Input) validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len([]rune(in.Message)) > maxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxMessageLength)
	}
	return nil
}

func (s *Service) newRow(userID string, in Input, at time.Time) *models.Notification {
	return &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      in.Type,
		Message:   in.Message,
		Link:      in.Link,
		Metadata:  in.Metadata,
		CreatedAt: at,
	}
}

// CreateNotification persists one row for userID and attempts a realtime
// push. Push failures never fail the call.
func (s *Service) CreateNotification(ctx context.Context, userID string, in Input) (*models.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	n := s.newRow(userID, in, s.now())
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.RecordNotificationsCreated(string(n.Type), "single", 1)

	if s.deliverer != nil {
		if err := s.deliverer.SendNotification(ctx, userID, n); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("user_id", userID).
				Str("notification_id", n.ID).
				Msg("Realtime push failed, notification remains available via polling")
		}
	}
	return n, nil
}

// CreateBroadcastNotification stores one row per active user except
// excludeUserID in a single transaction, then issues one broadcast push.
func (s *Service) CreateBroadcastNotification(ctx context.Context, in Input, excludeUserID string) ([]*models.Notification, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ids, err := s.users.ActiveUserIDs(ctx, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("load broadcast recipients: %w", err)
	}

	at := s.now()
	batch := make([]*models.Notification, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, s.newRow(id, in, at))
	}
	if err := s.store.InsertNotifications(ctx, batch); err != nil {
		return nil, fmt.Errorf("create broadcast notifications: %w", err)
	}
	metrics.RecordNotificationsCreated(string(in.Type), "broadcast", len(batch))

	logging.Ctx(ctx).Info().
		Int("recipients", len(batch)).
		Str("exclude_user_id", excludeUserID).
		Str("type", string(in.Type)).
		Msg("Broadcast notification created")

	if s.deliverer != nil && len(batch) > 0 {
		if err := s.deliverer.BroadcastNotification(ctx, batch, excludeUserID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Realtime broadcast failed, notifications remain available via polling")
		}
	}
	return batch, nil
}

// MarkAsRead flips one row to read. A non-empty userID restricts the call
// to that user's rows; a row owned by someone else reads as ErrNotFound.
// Marking an already read row succeeds.
func (s *Service) MarkAsRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	if notificationID == "" {
		return nil, fmt.Errorf("%w: notification id is required", ErrInvalidInput)
	}
	if err := s.store.MarkNotificationRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	metrics.NotificationsMarkedRead.Inc()

	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// deleted between the update and the read back
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load notification: %w", err)
	}
	return n, nil
}

// MarkAllAsRead flips every unread row of the user and returns the count.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	metrics.NotificationsMarkedRead.Add(float64(n))
	return n, nil
}

// DeleteNotification hard-deletes a row.
func (s *Service) DeleteNotification(ctx context.Context, notificationID string) error {
	if err := s.store.DeleteNotification(ctx, notificationID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// GetUnreadCount returns the exact number of unread rows.
func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.CountNotifications(ctx, userID, false)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// normalize applies defaults and caps.
func (s *Service) normalize(opts ListOptions) ListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.DefaultPageSize
	}
	if opts.Limit > s.cfg.MaxPageSize {
		opts.Limit = s.cfg.MaxPageSize
	}
	return opts
}

// GetUserNotifications returns one newest-first page plus totals.
func (s *Service) GetUserNotifications(ctx context.Context, userID string, opts ListOptions) (*models.NotificationPage, error) {
	opts = s.normalize(opts)

	total, err := s.store.CountNotifications(ctx, userID, opts.IncludeRead)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	rows, err := s.store.ListNotifications(ctx, userID, opts.IncludeRead, opts.Limit, (opts.Page-1)*opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return &models.NotificationPage{
		Notifications: rows,
		Total:         total,
		Page:          opts.Page,
		Limit:         opts.Limit,
		TotalPages:    totalPages(total, opts.Limit),
	}, nil
}

// ListUnread returns the newest unread rows used to initialize a socket.
func (s *Service) ListUnread(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.store.ListNotifications(ctx, userID, false, s.cfg.InitBatchSize, 0)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return rows, nil
}

func totalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
