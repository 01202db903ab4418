// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package notifyclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
)

// ErrRejected is returned by a session the server closed with an error
// message, e.g. for an expired token.
var ErrRejected = errors.New("realtime connection rejected")

// Run keeps one socket open until ctx is canceled, waiting the fixed
// reconnect delay between attempts. It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		c.update(func(s *State) {
			s.Connected = false
			if err != nil && ctx.Err() == nil {
				s.Err = err
			}
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.Warn().Err(err).Dur("delay", c.cfg.ReconnectDelay).Msg("Realtime connection lost, reconnecting")
		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session dials, authenticates and reads until the socket fails.
func (c *Client) session(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	// unblock ReadMessage on cancel
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	auth, err := realtime.MarshalMessage(realtime.MessageTypeAuth, realtime.AuthPayload{Token: c.cfg.Token})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := c.handle(ctx, data); err != nil {
			return err
		}
	}
}

func (c *Client) handle(ctx context.Context, data []byte) error {
	var env realtime.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logging.Debug().Err(err).Msg("Ignoring undecodable realtime message")
		return nil
	}

	switch env.Type {
	case realtime.MessageTypeNotificationsInit:
		var p realtime.NotificationsInitPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		c.applyInit(ctx, p.Notifications)

	case realtime.MessageTypeNotification:
		var n models.Notification
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		c.update(func(s *State) {
			if added := s.prepend([]*models.Notification{&n}); len(added) == 1 && !n.Read {
				s.UnreadCount++
			}
		})
		if c.cfg.OnNotification != nil {
			c.cfg.OnNotification(&n)
		}

	case realtime.MessageTypeUserStatus:
		var p realtime.UserStatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if c.cfg.OnUserStatus != nil {
			c.cfg.OnUserStatus(p)
		}

	case realtime.MessageTypeError:
		var p realtime.ErrorPayload
		_ = json.Unmarshal(env.Payload, &p)
		return fmt.Errorf("%w: %s %s", ErrRejected, p.Code, p.Message)
	}
	return nil
}

// applyInit merges the unread batch sent after authentication and
// re-reads the exact unread count, since the batch is capped.
func (c *Client) applyInit(ctx context.Context, rows []*models.Notification) {
	c.update(func(s *State) {
		s.prepend(rows)
		s.Connected = true
		if int64(len(rows)) > s.UnreadCount {
			s.UnreadCount = int64(len(rows))
		}
	})

	count, err := c.fetchUnreadCount(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("Unread count refresh after connect failed")
		return
	}
	c.update(func(s *State) { s.UnreadCount = count })
}
