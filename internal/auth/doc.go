// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package auth issues and checks the bearer tokens used by the REST API and the
realtime socket.

Tokens are HS256 JWTs carrying the user id, email and role:

	jwtManager, _ := auth.NewJWTManager(&cfg.Security)
	token, expiresAt, _ := jwtManager.GenerateToken(user)

The HTTP middleware puts the validated *Claims on the request context:

	r.With(mw.Authenticate).Get("/api/notifications", h.ListNotifications)
	claims, _ := auth.ClaimsFromContext(r.Context())

The websocket hub only needs the user id and uses VerifyToken.

Passwords are stored as bcrypt hashes (HashPassword, CheckPassword).
*/
package auth
