// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package api exposes the REST surface and mounts the realtime endpoint.

Every JSON answer uses the same envelope:

	{
	  "status":   "success" | "error",
	  "data":     ...,
	  "metadata": {"timestamp": "...", "request_id": "..."},
	  "error":    {"code": "...", "message": "...", "details": {...}}
	}

Routes are grouped with chi. Authentication (bearer JWT) and authorization
(Casbin role policy) run as per-group middleware; ownership rules such as
"userId must equal the caller unless admin" are checked in the handlers.

Status mapping:

  - 400 invalid body or query (VALIDATION_ERROR / BAD_REQUEST)
  - 401 missing or invalid token
  - 403 policy or ownership denial
  - 404 unknown resource
  - 409 backup restore onto a non-empty database, duplicate email
  - 429 rate limit
  - 500 storage failures, never with the underlying error text
*/
package api
