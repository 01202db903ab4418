// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package notifyclient

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
)

// ReconnectDelay is the fixed wait between socket attempts.
const ReconnectDelay = 5 * time.Second

// DefaultPageSize matches the server's default page size.
const DefaultPageSize = 20

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. https://misdaqia.sa. The socket URL is
	// derived from it.
	BaseURL string
	Token   string

	// UserID is sent as the userId query parameter. Empty means the caller.
	UserID   string
	PageSize int

	HTTPClient *http.Client
	Dialer     *websocket.Dialer

	// ReconnectDelay overrides the fixed reconnect wait. Zero means 5s.
	ReconnectDelay time.Duration

	// OnNotification is called for every pushed notification, including
	// broadcast copies that have no row for this user.
	OnNotification func(*models.Notification)
	// OnUserStatus is called for every presence event.
	OnUserStatus func(realtime.UserStatusPayload)
}

// Client holds the local notification state of one user.
type Client struct {
	cfg     Config
	baseURL string
	wsURL   string
	http    *http.Client
	dialer  *websocket.Dialer

	mu    sync.Mutex
	state State

	updates chan State
}

// New creates a client. Nothing is fetched until Refresh or Run.
func New(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = ReconnectDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		baseURL: base,
		wsURL:   socketURL(base),
		http:    cfg.HTTPClient,
		dialer:  cfg.Dialer,
		updates: make(chan State, 1),
	}
}

func socketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Updates delivers the latest state after every change. Only the newest
// state is kept when the reader falls behind.
func (c *Client) Updates() <-chan State {
	return c.updates
}

// update applies fn under the lock and publishes the result.
func (c *Client) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot := c.state.clone()
	c.mu.Unlock()

	select {
	case c.updates <- snapshot:
		return
	default:
	}
	// drop the stale value and retry once
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- snapshot:
	default:
	}
}

func (c *Client) setErr(err error) {
	c.update(func(s *State) { s.Err = err })
}
