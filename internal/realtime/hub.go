// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package realtime

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, err error)
}

// NotificationSource is the notification service as seen by the hub.
type NotificationSource interface {
	ListUnread(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) (*models.Notification, error)
}

// PresenceRecorder persists online/offline transitions.
type PresenceRecorder interface {
	MarkOnline(ctx context.Context, userID string, at time.Time) error
	MarkOffline(ctx context.Context, userID string, at time.Time) error
}

// Config tunes the hub.
type Config struct {
	HeartbeatInterval time.Duration
	AuthTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	SendBuffer        int
	MessagesPerSecond float64
	MessageBurst      int
	AllowedOrigins    []string
}

// DefaultConfig mirrors the server defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		AuthTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBuffer:        256,
		MessagesPerSecond: 20,
		MessageBurst:      40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = d.AuthTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.MessagesPerSecond <= 0 {
		c.MessagesPerSecond = d.MessagesPerSecond
	}
	if c.MessageBurst <= 0 {
		c.MessageBurst = d.MessageBurst
	}
	return c
}

// Hub owns the user id -> connection map of this process.
type Hub struct {
	cfg      Config
	verifier TokenVerifier
	source   NotificationSource
	presence PresenceRecorder
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a hub. presence may be nil.
func NewHub(cfg Config, verifier TokenVerifier, source NotificationSource, presence PresenceRecorder) *Hub {
	h := &Hub{
		cfg:      cfg.withDefaults(),
		verifier: verifier,
		source:   source,
		presence: presence,
		clients:  make(map[string]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// checkOrigin accepts configured browser origins. Requests without an Origin
// header come from non-browser clients; the socket is still useless to them
// until a valid token is presented.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ServeHTTP upgrades the request and starts the connection state machine.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := newClient(h, conn, context.WithoutCancel(r.Context()))
	go client.run()
}

// RunWithContext drives the heartbeat until ctx is canceled, then closes every
// connection. Designed for suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			h.heartbeat()
		}
	}
}

// heartbeat reaps sockets that missed the previous ping and pings the rest.
func (h *Hub) heartbeat() {
	for _, c := range h.snapshot() {
		if !c.alive.Swap(false) {
			logging.Info().Str("user_id", c.userID).Msg("Terminating unresponsive websocket client")
			metrics.WSClientsReaped.Inc()
			h.unregister(c)
			c.terminate()
			continue
		}
		if err := c.ping(); err != nil {
			logging.Debug().Err(err).Str("user_id", c.userID).Msg("Failed to send ping")
		}
	}
}

// snapshot returns the registered clients ordered by connection id.
func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// register maps the client's user id to it and closes any earlier socket of
// the same user. Reports whether the user was previously offline.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	old := h.clients[c.userID]
	h.clients[c.userID] = c
	total := len(h.clients)
	h.mu.Unlock()

	if old != nil {
		logging.Info().Str("user_id", c.userID).Msg("Replacing existing websocket connection")
		old.closeWith(websocket.CloseNormalClosure, "replaced by a newer connection")
		return false
	}

	metrics.WSConnections.Inc()
	logging.Info().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
	return true
}

// unregister removes c if the map still points at it, then announces the
// user as offline. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	if c.userID == "" {
		return
	}

	h.mu.Lock()
	current, ok := h.clients[c.userID]
	if !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.userID)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Dec()
	logging.Info().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client disconnected")

	h.broadcastStatus(c.userID, StatusOffline)
	if h.presence != nil {
		ctx, cancel := context.WithTimeout(c.ctx, h.cfg.WriteTimeout)
		defer cancel()
		if err := h.presence.MarkOffline(ctx, c.userID, time.Now().UTC()); err != nil {
			logging.Warn().Err(err).Str("user_id", c.userID).Msg("Failed to record last seen")
		}
	}
}

// broadcastStatus tells every socket except the subject about a presence change.
func (h *Hub) broadcastStatus(userID, status string) {
	msg, err := MarshalMessage(MessageTypeUserStatus, UserStatusPayload{UserID: userID, Status: status})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode user_status message")
		return
	}
	for _, c := range h.snapshot() {
		if c.userID == userID {
			continue
		}
		c.enqueue(MessageTypeUserStatus, msg)
	}
}

// SendNotification pushes n to userID's socket. Offline users are skipped.
func (h *Hub) SendNotification(ctx context.Context, userID string, n *models.Notification) error {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()

	if c == nil {
		logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("User offline, notification not pushed")
		metrics.RecordPushDropped("offline")
		return nil
	}

	msg, err := MarshalMessage(MessageTypeNotification, n)
	if err != nil {
		return err
	}
	c.enqueue(MessageTypeNotification, msg)
	return nil
}

// BroadcastNotification pushes to every socket except excludeUserID's. Each
// user receives its own row from batch; sockets of users without a row get
// the shared content without an id.
func (h *Hub) BroadcastNotification(ctx context.Context, batch []*models.Notification, excludeUserID string) error {
	if len(batch) == 0 {
		return nil
	}

	byUser := make(map[string]*models.Notification, len(batch))
	for _, n := range batch {
		byUser[n.UserID] = n
	}
	shared := *batch[0]
	shared.ID = ""
	shared.UserID = ""

	delivered := 0
	for _, c := range h.snapshot() {
		if c.userID == excludeUserID {
			continue
		}
		n, ok := byUser[c.userID]
		if !ok {
			n = &shared
		}
		msg, err := MarshalMessage(MessageTypeNotification, n)
		if err != nil {
			return err
		}
		if c.enqueue(MessageTypeNotification, msg) {
			delivered++
		}
	}

	logging.Ctx(ctx).Debug().
		Int("delivered", delivered).
		Str("exclude_user_id", excludeUserID).
		Msg("Broadcast notification pushed")
	return nil
}

// IsOnline reports whether userID has a registered socket on this instance.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetClientCount returns the number of registered sockets.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// logGracefulShutdown closes every client and logs the reason.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("realtime hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients sends a going-away close frame to every socket.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, c := range clients {
		metrics.WSConnections.Dec()
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
}
