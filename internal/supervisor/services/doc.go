// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package services adapts the server's long-running components to
// suture.Service so they can be placed in the supervisor tree.
//
// Each wrapper depends on a small interface rather than the concrete
// component, which keeps this package free of imports from the realtime
// and relay packages and lets tests use doubles.
package services
