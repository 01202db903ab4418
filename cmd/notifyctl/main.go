// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Command notifyctl reads and follows a user's Misdaqia notifications from
// the terminal.
//
//	export MISDAQIA_SERVER=https://misdaqia.sa MISDAQIA_TOKEN=...
//	notifyctl list --page 2
//	notifyctl read 5f0c...
//	notifyctl read-all
//	notifyctl tail
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
