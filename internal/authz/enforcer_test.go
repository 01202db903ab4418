// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package authz

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func TestEnforce_EmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{models.RoleUser, ObjectNotifications, ActionRead, true},
		{models.RoleUser, ObjectNotifications, ActionWrite, true},
		{models.RoleUser, ObjectReviews, ActionWrite, true},
		{models.RoleUser, ObjectPresence, ActionRead, true},
		{models.RoleUser, ObjectNotificationsAdmin, ActionWrite, false},
		{models.RoleUser, ObjectBackup, ActionWrite, false},
		{models.RoleUser, ObjectUsers, ActionWrite, false},
		{models.RoleCompany, ObjectComments, ActionWrite, true},
		{models.RoleCompany, ObjectNotifications, ActionRead, true},
		{models.RoleCompany, ObjectBackup, ActionRead, false},
		{models.RoleCompany, ObjectCompanies, ActionWrite, true},
		{models.RoleUser, ObjectCompanies, ActionWrite, false},
		{models.RoleAdmin, ObjectBackup, ActionWrite, true},
		{models.RoleAdmin, ObjectNotificationsAdmin, ActionDelete, true},
		{"", ObjectNotifications, ActionRead, false},
		{"guest", ObjectNotifications, ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, user, backup, read\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Enforce(models.RoleUser, ObjectBackup, ActionRead); !ok {
		t.Error("policy file not applied")
	}
	if ok, _ := e.Enforce(models.RoleUser, ObjectNotifications, ActionRead); ok {
		t.Error("embedded policy leaked into file policy")
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	e := newTestEnforcer(t)
	for _, policy := range []string{"p, user, notifications", "x, a, b", "g, company"} {
		if err := loadPolicy(e.enforcer, policy); err == nil {
			t.Errorf("loadPolicy(%q) should fail", policy)
		}
	}
}

func TestEmbeddedPolicy_KnowsEveryAccountRole(t *testing.T) {
	e := newTestEnforcer(t)
	for _, role := range []string{models.RoleUser, models.RoleCompany, models.RoleAdmin, "superuser", ""} {
		allowed, err := e.Enforce(role, ObjectNotifications, ActionRead)
		if err != nil {
			t.Fatal(err)
		}
		if allowed != models.ValidRole(role) {
			t.Errorf("role %q: policy allows = %v, ValidRole = %v", role, allowed, models.ValidRole(role))
		}
	}
}
