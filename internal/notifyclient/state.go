// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package notifyclient

import (
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// State is a point-in-time view of the user's notifications.
type State struct {
	Notifications []*models.Notification
	UnreadCount   int64
	Page          int
	TotalPages    int
	Connected     bool

	// Err is the last failure of a REST call or the socket. It is not
	// cleared by later optimistic updates, only by a successful Refresh.
	Err error
}

// HasMore reports whether LoadMore would fetch another page.
func (s State) HasMore() bool {
	return s.Page < s.TotalPages
}

func (s State) clone() State {
	out := s
	out.Notifications = make([]*models.Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		cp := *n
		out.Notifications[i] = &cp
	}
	return out
}

func (s *State) indexOf(id string) int {
	for i, n := range s.Notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// prepend adds rows newer than the current list, skipping ids already held.
// It returns the rows that were actually added.
func (s *State) prepend(rows []*models.Notification) []*models.Notification {
	added := make([]*models.Notification, 0, len(rows))
	for _, n := range rows {
		if n == nil || n.ID == "" || s.indexOf(n.ID) >= 0 {
			continue
		}
		added = append(added, n)
	}
	if len(added) > 0 {
		s.Notifications = append(added, s.Notifications...)
	}
	return added
}

// appendPage adds an older page, skipping rows that a live push already
// placed in the list.
func (s *State) appendPage(rows []*models.Notification) {
	for _, n := range rows {
		if s.indexOf(n.ID) < 0 {
			s.Notifications = append(s.Notifications, n)
		}
	}
}
