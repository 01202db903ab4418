// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package audit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// Config holds the audit logger settings.
type Config struct {
	Enabled         bool
	BufferSize      int
	RetentionDays   int // 0 keeps every event
	CleanupInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 24 * time.Hour
	}
	return c
}

// Logger queues events and writes them to a Store in the background.
// A nil *Logger discards everything.
type Logger struct {
	cfg    Config
	store  Store
	events chan *Event
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewLogger starts the background writer.
func NewLogger(store Store, cfg Config) *Logger {
	cfg = cfg.withDefaults()
	l := &Logger{
		cfg:    cfg,
		store:  store,
		events: make(chan *Event, cfg.BufferSize),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

func (l *Logger) writer() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.events:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.events:
			l.write(e)
		}
	}
}

func (l *Logger) write(e *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.SaveAuditEvent(ctx, e); err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Str("type", string(e.Type)).Msg("Failed to save audit event")
	}
}

// Log queues an event, filling in the id and timestamp when unset.
func (l *Logger) Log(e *Event) {
	if l == nil || !l.cfg.Enabled {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}

	select {
	case l.events <- e:
		metrics.RecordAuditEvent(string(e.Type), string(e.Outcome))
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().Str("event_id", e.ID).Str("type", string(e.Type)).Msg("Audit buffer full, dropping event")
	}
}

// Close stops the writer after draining queued events.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}

// Query reads stored events.
func (l *Logger) Query(ctx context.Context, f Filter) ([]Event, error) {
	return l.store.QueryAuditEvents(ctx, f)
}

// Serve runs the retention cleanup until ctx is done.
func (l *Logger) Serve(ctx context.Context) error {
	if l.cfg.RetentionDays <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Cleanup(ctx)
		}
	}
}

// Cleanup deletes events older than the retention window.
func (l *Logger) Cleanup(ctx context.Context) int64 {
	if l.cfg.RetentionDays <= 0 {
		return 0
	}
	cutoff := l.now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	n, err := l.store.DeleteAuditEventsBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup failed")
		return 0
	}
	if n > 0 {
		logging.Info().Int64("count", n).Time("cutoff", cutoff).Msg("Old audit events removed")
	}
	return n
}

func (l *Logger) String() string { return "audit-retention" }

// LogAuth records a sign-in or registration attempt.
func (l *Logger) LogAuth(r *http.Request, t EventType, outcome Outcome, userID, role, description string) {
	e := newRequestEvent(r, t, outcome)
	e.ActorID = userID
	e.ActorRole = role
	e.TargetType = "user"
	e.TargetID = userID
	e.Description = description
	l.Log(e)
}

// LogAdminAction records a successful privileged action.
func (l *Logger) LogAdminAction(r *http.Request, actorID, actorRole string, t EventType, targetType, targetID, description string, metadata models.JSONMap) {
	e := newRequestEvent(r, t, OutcomeSuccess)
	e.ActorID = actorID
	e.ActorRole = actorRole
	e.TargetType = targetType
	e.TargetID = targetID
	e.Description = description
	e.Metadata = metadata
	l.Log(e)
}

func newRequestEvent(r *http.Request, t EventType, outcome Outcome) *Event {
	e := &Event{Type: t, Outcome: outcome}
	if r == nil {
		return e
	}
	e.SourceIP = clientIP(r.RemoteAddr)
	e.UserAgent = r.UserAgent()
	e.RequestID = logging.RequestIDFromContext(r.Context())
	return e
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
