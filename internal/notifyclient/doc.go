// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package notifyclient is the client side of the notification delivery path.

A Client keeps one websocket open for a signed-in user, authenticates it
with the user's bearer token and folds pushed messages into a local State.
The REST endpoints serve as the fallback and source of truth: Refresh
loads the first page, LoadMore follows the pagination, and the mark-read
operations go through REST.

Mark-read operations are optimistic. Local state is patched first and the
server call follows; when the call fails the error is kept in State.Err and
the local patch stays. The next Refresh reconciles with the server.

The socket reconnects after a fixed delay (5s) until the context passed to
Run is canceled. Rows pushed while the socket is down are not replayed, but
they are part of the next notifications_init batch and of every REST page.

Usage:

	c := notifyclient.New(notifyclient.Config{BaseURL: "https://misdaqia.sa", Token: token})
	go c.Run(ctx)
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	for state := range c.Updates() {
		render(state)
	}
*/
package notifyclient
