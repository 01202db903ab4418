// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package notifyclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// do sends an authenticated request and decodes the envelope data into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || env.Status == "error" {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) userQuery() url.Values {
	q := url.Values{}
	if c.cfg.UserID != "" {
		q.Set("userId", c.cfg.UserID)
	}
	return q
}

// FetchPage reads one page without touching the local state.
func (c *Client) FetchPage(ctx context.Context, page int) (*models.NotificationPage, error) {
	q := c.userQuery()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))

	var p models.NotificationPage
	if err := c.do(ctx, http.MethodGet, "/api/notifications", q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) fetchUnreadCount(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", c.userQuery(), &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Refresh replaces the list with the first page and reloads the unread
// count. A successful refresh clears State.Err.
func (c *Client) Refresh(ctx context.Context) error {
	p, err := c.FetchPage(ctx, 1)
	if err != nil {
		c.setErr(err)
		return err
	}
	count, err := c.fetchUnreadCount(ctx)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.update(func(s *State) {
		s.Notifications = p.Notifications
		s.Page = p.Page
		s.TotalPages = p.TotalPages
		s.UnreadCount = count
		s.Err = nil
	})
	return nil
}

// LoadMore appends the next page. It does nothing unless page < totalPages.
func (c *Client) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	page, total := c.state.Page, c.state.TotalPages
	c.mu.Unlock()
	if page >= total {
		return nil
	}

	p, err := c.FetchPage(ctx, page+1)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.update(func(s *State) {
		s.appendPage(p.Notifications)
		s.Page = p.Page
		s.TotalPages = p.TotalPages
	})
	return nil
}

// MarkAsRead marks one row read locally, then on the server. A failed
// server call is recorded in State.Err and the local change is kept.
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	c.update(func(s *State) {
		i := s.indexOf(id)
		if i < 0 || s.Notifications[i].Read {
			return
		}
		s.Notifications[i].Read = true
		if s.UnreadCount > 0 {
			s.UnreadCount--
		}
	})

	if err := c.do(ctx, http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		c.setErr(err)
		return err
	}
	return nil
}

// MarkAllAsRead marks every row read locally, then on the server. As with
// MarkAsRead, nothing is rolled back on failure.
func (c *Client) MarkAllAsRead(ctx context.Context) error {
	c.update(func(s *State) {
		for _, n := range s.Notifications {
			n.Read = true
		}
		s.UnreadCount = 0
	})

	if err := c.do(ctx, http.MethodPut, "/api/notifications/read-all", c.userQuery(), nil); err != nil {
		c.setErr(err)
		return err
	}
	return nil
}
