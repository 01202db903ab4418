// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps events in a bounded slice. When full, the oldest tenth
// is dropped.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{events: make([]Event, 0, maxLen), maxLen: maxLen}
}

// SaveAuditEvent implements Store.
func (s *MemoryStore) SaveAuditEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := s.maxLen / 10
		if drop == 0 {
			drop = 1
		}
		s.events = append(s.events[:0], s.events[drop:]...)
	}
	s.events = append(s.events, *e)
	return nil
}

// QueryAuditEvents implements Store.
func (s *MemoryStore) QueryAuditEvents(_ context.Context, f Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.EffectiveLimit()
	out := []Event{}
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.matches(&s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// DeleteAuditEventsBefore implements Store.
func (s *MemoryStore) DeleteAuditEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
