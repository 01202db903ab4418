// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package backup

import (
	"context"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

// Scheduler takes a backup every interval and prunes old files afterwards.
// It implements suture.Service.
type Scheduler struct {
	manager  *Manager
	interval time.Duration
	keep     int
}

// NewScheduler creates a scheduler. interval must be positive.
func NewScheduler(m *Manager, interval time.Duration, keep int) *Scheduler {
	return &Scheduler{manager: m, interval: interval, keep: keep}
}

// Serve runs until ctx is canceled. A failed backup is logged and retried
// on the next tick rather than returned, so one bad run does not count
// against the supervisor's restart budget.
func (s *Scheduler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Int("keep", s.keep).Msg("Backup scheduler started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, name, err := s.manager.Create(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled backup failed")
		return
	}
	logging.Info().Str("file", name).Msg("Scheduled backup completed")

	if _, err := s.manager.Prune(s.keep); err != nil {
		logging.Error().Err(err).Msg("Backup retention failed")
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string {
	return "backup-scheduler"
}
