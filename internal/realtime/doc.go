// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package realtime pushes notifications and presence events to connected users
over WebSocket.

# Connection lifecycle

Every socket walks the same states:

	Connecting -> Authenticated -> (Alive <-> PendingHeartbeat) -> Closed

A new socket must send {"type":"auth","payload":{"token":"<jwt>"}} within
the auth timeout. Anything else, or an invalid token, closes it with a
policy-violation close frame. After authentication the hub:

  - registers the socket under the token's user id, closing any earlier
    socket of the same user
  - sends notifications_init with the newest unread rows
  - broadcasts user_status {status:"online"} to every other socket
  - records presence

# Heartbeat

On every heartbeat tick the hub visits each socket. A socket that has not
answered the previous ping is unregistered and terminated; otherwise it is
marked pending and pinged again. A dead peer is therefore gone after at most
two intervals.

# Delivery

SendNotification and BroadcastNotification enqueue pre-encoded envelopes on
each socket's buffered send queue. Offline users and full queues drop the
message. The persisted row remains the source of truth and is picked up by
the REST listing.

# Messages

	client -> server: auth, notification_read
	server -> client: notifications_init, notification, user_status, error

Envelope format:

	{"type": "notification", "payload": {...}}
*/
package realtime
