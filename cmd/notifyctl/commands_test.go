// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/models"
)

func fakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.APIResponse{Status: "error", Error: &models.APIError{Code: "UNAUTHORIZED"}})
			return
		}
		var data interface{}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/notifications":
			data = models.NotificationPage{
				Notifications: []*models.Notification{{
					ID: "n1", Type: models.NotificationWarning, Message: "Maintenance tonight",
					CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				}},
				Total: 21, Page: 2, Limit: 20, TotalPages: 2,
			}
		case r.Method == http.MethodPut && r.URL.Path == "/api/notifications/missing/read":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.APIResponse{Status: "error", Error: &models.APIError{Code: "NOT_FOUND"}})
			return
		case r.Method == http.MethodPut:
			data = map[string]int{"updated": 1}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(models.APIResponse{Status: "success", Data: data})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	srv, calls := fakeAPI(t)
	base := []string{"--server", srv.URL, "--token", "secret", "--log-level", "error"}

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantCall string
		wantErr  string
	}{
		{"list", []string{"list", "--page", "2"}, "page 2 of 2 (21 total)", "GET /api/notifications?limit=20&page=2", ""},
		{"list as admin", []string{"list", "--user", "u7"}, "Maintenance tonight", "GET /api/notifications?limit=20&page=1&userId=u7", ""},
		{"read", []string{"read", "n1"}, "marked n1 as read", "PUT /api/notifications/n1/read?", ""},
		{"read missing", []string{"read", "missing"}, "", "PUT /api/notifications/missing/read?", "not found"},
		{"read-all", []string{"read-all"}, "all notifications marked as read", "PUT /api/notifications/read-all?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append(base, tt.args...)...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want %q", out, tt.wantOut)
			}
			if last := (*calls)[len(*calls)-1]; last != tt.wantCall {
				t.Errorf("last call = %q, want %q", last, tt.wantCall)
			}
		})
	}
}

func TestCommands_RequireToken(t *testing.T) {
	t.Setenv("MISDAQIA_TOKEN", "")
	if _, err := run(t, "list", "--server", "http://127.0.0.1:1"); err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("error = %v", err)
	}
}

func TestTail_RejectsUserFlag(t *testing.T) {
	srv, calls := fakeAPI(t)
	_, err := run(t, "--server", srv.URL, "--token", "secret", "--log-level", "error", "tail", "--user", "u7")
	if err == nil || !strings.Contains(err.Error(), "--user is not supported") {
		t.Fatalf("error = %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("tail reached the server: %v", *calls)
	}
}
