// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
)

// clientIDCounter orders clients for deterministic fan-out.
var clientIDCounter atomic.Uint64

// Client is one socket. userID is set once during authentication, before
// the client becomes visible to the hub.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	ctx     context.Context
	userID  string
	alive   atomic.Bool
	limiter *rate.Limiter

	mu        sync.Mutex
	send      chan []byte
	closed    bool
	closeCode int
	closeText string
}

func newClient(hub *Hub, conn *websocket.Conn, ctx context.Context) *Client {
	c := &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		ctx:     ctx,
		limiter: rate.NewLimiter(rate.Limit(hub.cfg.MessagesPerSecond), hub.cfg.MessageBurst),
		send:    make(chan []byte, hub.cfg.SendBuffer),
	}
	c.alive.Store(true)
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the authenticated user, empty before authentication.
func (c *Client) UserID() string {
	return c.userID
}

// run walks the connection through its lifecycle and returns once closed.
func (c *Client) run() {
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)

	if !c.authenticate() {
		return
	}

	go c.writePump()

	firstConnection := c.hub.register(c)
	c.sendInit()
	if firstConnection {
		c.hub.broadcastStatus(c.userID, StatusOnline)
	}
	if c.hub.presence != nil {
		ctx, cancel := context.WithTimeout(c.ctx, c.hub.cfg.WriteTimeout)
		if err := c.hub.presence.MarkOnline(ctx, c.userID, time.Now().UTC()); err != nil {
			logging.Warn().Err(err).Str("user_id", c.userID).Msg("Failed to record presence")
		}
		cancel()
	}

	c.readPump()
}

// authenticate waits for the auth message. On failure the socket is closed
// with a policy-violation frame.
func (c *Client) authenticate() bool {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.AuthTimeout)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		_ = c.conn.Close()
		return false
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.reject("auth_timeout", "authentication timeout")
			return false
		}
		logging.Debug().Err(err).Msg("websocket closed before authentication")
		_ = c.conn.Close()
		return false
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != MessageTypeAuth {
		c.reject("auth_required", "authentication required")
		return false
	}

	var payload AuthPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Token == "" {
		c.reject("auth_required", "missing token")
		return false
	}

	userID, err := c.hub.verifier.VerifyToken(payload.Token)
	if err != nil || userID == "" {
		logging.Info().Err(err).Msg("websocket authentication failed")
		c.reject("invalid_token", "invalid token")
		return false
	}

	c.userID = userID
	metrics.WSMessagesReceived.WithLabelValues(MessageTypeAuth).Inc()
	return true
}

// reject runs before writePump exists, so it writes to the socket directly.
func (c *Client) reject(code, message string) {
	metrics.WSErrors.WithLabelValues(code).Inc()
	deadline := time.Now().Add(c.hub.cfg.WriteTimeout)

	if msg, err := MarshalMessage(MessageTypeError, ErrorPayload{Code: code, Message: message}); err == nil {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), deadline)
	_ = c.conn.Close()
}

// sendInit queues the newest unread rows.
func (c *Client) sendInit() {
	ctx, cancel := context.WithTimeout(c.ctx, c.hub.cfg.WriteTimeout)
	defer cancel()

	rows, err := c.hub.source.ListUnread(ctx, c.userID)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", c.userID).Msg("Failed to load unread notifications")
		return
	}
	msg, err := MarshalMessage(MessageTypeNotificationsInit, NotificationsInitPayload{Notifications: rows})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode notifications_init")
		return
	}
	c.enqueue(MessageTypeNotificationsInit, msg)
}

// readPump handles client messages until the socket fails, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.terminate()
	}()

	// backstop only; the heartbeat reaps silent peers first
	readWait := 3 * c.hub.cfg.HeartbeatInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.Debug().Err(err).Str("user_id", c.userID).Msg("unexpected websocket close")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))

		if !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			logging.Warn().Str("user_id", c.userID).Msg("websocket message rate limit exceeded, dropping message")
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.WSErrors.WithLabelValues("invalid_message").Inc()
		logging.Warn().Err(err).Str("user_id", c.userID).Msg("invalid websocket message")
		return
	}

	switch env.Type {
	case MessageTypeNotificationRead:
		metrics.WSMessagesReceived.WithLabelValues(env.Type).Inc()
		var payload NotificationReadPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.NotificationID == "" {
			logging.Warn().Str("user_id", c.userID).Msg("notification_read without notificationId")
			return
		}
		ctx, cancel := context.WithTimeout(c.ctx, c.hub.cfg.WriteTimeout)
		defer cancel()
		if _, err := c.hub.source.MarkAsRead(ctx, c.userID, payload.NotificationID); err != nil {
			logging.Warn().Err(err).
				Str("user_id", c.userID).
				Str("notification_id", payload.NotificationID).
				Msg("Failed to mark notification read")
		}
	case MessageTypeAuth:
		logging.Debug().Str("user_id", c.userID).Msg("ignoring auth on authenticated socket")
	default:
		metrics.WSMessagesReceived.WithLabelValues("unknown").Inc()
		logging.Debug().Str("type", env.Type).Msg("ignoring unknown websocket message")
	}
}

// writePump writes queued messages. When the queue is closed it sends the
// pending close frame, if any, and closes the socket.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			metrics.WSErrors.WithLabelValues("write_failed").Inc()
			logging.Debug().Err(err).Str("user_id", c.userID).Msg("failed to write websocket message")
			return
		}
	}

	c.mu.Lock()
	code, text := c.closeCode, c.closeText
	c.mu.Unlock()
	if code != 0 {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(c.hub.cfg.WriteTimeout))
	}
}

// enqueue queues msg without blocking. A full queue drops it.
func (c *Client) enqueue(messageType string, msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		metrics.WSMessagesSent.WithLabelValues(messageType).Inc()
		return true
	default:
		metrics.RecordPushDropped("buffer_full")
		logging.Warn().Str("user_id", c.userID).Str("type", messageType).Msg("send buffer full, dropping message")
		return false
	}
}

// ping sends a heartbeat control frame. Safe to call concurrently with writePump.
func (c *Client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.cfg.WriteTimeout))
}

// closeWith drains the queue and then sends a close frame with code.
func (c *Client) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeText = text
	close(c.send)
}

// terminate drops the socket without a close handshake.
func (c *Client) terminate() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.conn.Close()
}
