// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package middleware holds the HTTP middleware shared by every route:
// request ids, Prometheus instrumentation and access logging. All of them
// have the chi signature func(http.Handler) http.Handler.
package middleware
