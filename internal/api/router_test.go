// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/authz"
	"github.com/ahmed2za/shaip-sub002/internal/backup"
	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/notification"
	"github.com/ahmed2za/shaip-sub002/internal/presence"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
	"github.com/ahmed2za/shaip-sub002/internal/review"
	"github.com/ahmed2za/shaip-sub002/internal/testinfra"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

const testSecret = "test-secret-that-is-at-least-32-characters"

// envelope decodes the response wrapper while keeping data raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testServer struct {
	cfg           *config.Config
	db            *database.DB
	jwt           *auth.JWTManager
	notifications *notification.Service
	hub           *realtime.Hub
	presence      *presence.Store
	audit         *audit.Logger
	handler       http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:    testSecret,
			RateLimitOff: true,
		},
	}
	db := testinfra.NewTestDB(t)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	store, err := presence.Open("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := notification.NewService(db, db, nil, notification.Config{})
	hub := realtime.NewHub(realtime.DefaultConfig(), jwtManager, svc, store)
	svc.SetDeliverer(hub)

	backups, err := backup.NewManager(db, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	auditLog := audit.NewLogger(db, audit.Config{Enabled: true})
	t.Cleanup(func() { _ = auditLog.Close() })

	ts := &testServer{
		cfg:           cfg,
		db:            db,
		jwt:           jwtManager,
		notifications: svc,
		hub:           hub,
		presence:      store,
		audit:         auditLog,
	}
	ts.handler = NewRouter(Dependencies{
		Config:        cfg,
		DB:            db,
		JWT:           jwtManager,
		Accounts:      auth.NewAccounts(db, jwtManager),
		Enforcer:      enforcer,
		Notifications: svc,
		Reviews:       review.NewService(db, svc),
		Backups:       backups,
		Audit:         auditLog,
		Presence:      store,
		Online:        hub,
		Realtime:      hub,
	})
	return ts
}

// createUser stores a user directly and returns it with a valid token.
func (ts *testServer) createUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         email,
		Email:        email,
		PasswordHash: "unused",
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := ts.db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	token, _, err := ts.jwt.GenerateToken(u)
	if err != nil {
		t.Fatal(err)
	}
	return u, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// decode checks the status code and unmarshals data into out when non-nil.
func decode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, out interface{}) *envelope {
	t.Helper()
	if w.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body = %s", err, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v; data = %s", err, env.Data)
		}
	}
	return &env
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var health HealthResponse
	env := decode(t, ts.do(t, http.MethodGet, "/health", "", nil), http.StatusOK, &health)
	if env.Status != "success" {
		t.Errorf("envelope status = %q", env.Status)
	}
	if health.Status != "healthy" || health.DatabaseDriver != database.DriverSQLite {
		t.Errorf("health = %+v", health)
	}
	if env.Metadata.RequestID == "" {
		t.Error("metadata.request_id should be set")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("go_goroutines")) {
		t.Error("metrics output missing runtime collectors")
	}
}

func TestRouter_ErrorEnvelopes(t *testing.T) {
	ts := newTestServer(t)
	_, userToken := ts.createUser(t, "user@misdaqia.sa", models.RoleUser)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		status   int
		wantCode string
	}{
		{"unknown route", http.MethodGet, "/nope", "", nil, http.StatusNotFound, ErrCodeNotFound},
		{"wrong method", http.MethodDelete, "/health", "", nil, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"missing token", http.MethodGet, "/api/notifications", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad token", http.MethodGet, "/api/notifications", "garbage", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"user on admin route", http.MethodPost, "/api/admin/notifications/broadcast", userToken,
			map[string]string{"type": "info", "message": "hi"}, http.StatusForbidden, "FORBIDDEN"},
		{"user on backup", http.MethodPost, "/api/admin/backup", userToken, nil, http.StatusForbidden, "FORBIDDEN"},
		{"user on audit", http.MethodGet, "/api/admin/audit", userToken, nil, http.StatusForbidden, "FORBIDDEN"},
		{"user creates company", http.MethodPost, "/api/companies", userToken,
			map[string]string{"name": "Acme"}, http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decode(t, ts.do(t, tt.method, tt.path, tt.token, tt.body), tt.status, nil)
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("envelope = %+v, error = %+v", env, env.Error)
			}
		})
	}
}

func TestRouter_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.createUser(t, "admin@misdaqia.sa", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	env := decode(t, w, http.StatusBadRequest, nil)
	if env.Error.Code != ErrCodeBadRequest {
		t.Errorf("code = %q", env.Error.Code)
	}
}

func TestRouter_SecurityHeadersOnAPI(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/notifications", "", nil)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := &ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute}
	limited := NewChiMiddleware(cfg).RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	got := chiMiddlewareConfigFrom(&config.SecurityConfig{
		RateLimitReqs:   10,
		RateLimitWindow: time.Second,
		CORSOrigins:     []string{"https://misdaqia.sa"},
	})
	if got.RateLimitRequests != 10 || got.RateLimitWindow != time.Second || got.CORSAllowedOrigins[0] != "https://misdaqia.sa" {
		t.Errorf("config = %+v", got)
	}
	if def := chiMiddlewareConfigFrom(nil); def.RateLimitRequests != 100 {
		t.Errorf("default requests = %d", def.RateLimitRequests)
	}
}
