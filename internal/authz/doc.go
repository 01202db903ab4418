// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package authz maps account roles to API permissions.

The subject of every decision is the caller's role (user, company or admin);
objects are coarse API resources such as "notifications" or "backup". The
embedded model.conf and policy.csv can be replaced at runtime through
security.casbin_model_path and security.casbin_policy_path.

Routes declare what they need:

	r.With(authzMW.Require(authz.ObjectBackup, authz.ActionWrite)).
		Post("/api/admin/backup", h.CreateBackup)

Ownership checks (a user reading only their own notifications) stay in the
handlers; the policy only answers role questions.
*/
package authz
