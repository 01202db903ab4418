// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

/*
Package backup exports and re-imports the review data as one JSON document.

	{
	  "version": "1.0",
	  "timestamp": "2026-03-01T12:00:00Z",
	  "data": {"users": [], "companies": [], "reviews": [], "comments": []}
	}

Create reads all four tables in one transaction. Admin accounts are left out
so a restore never collides with the admin performing it; only their ids are
kept, and rows they own are handed to the restoring admin. Password hashes
are kept so restored accounts can sign in.

Restore only runs against a database holding nothing but admin accounts and
inserts everything in one transaction. Company ratings are recomputed from the
restored reviews. Ids are regenerated; owner, company, review and
author references are rewritten through maps from the old ids to the new ones.
Notifications are not backed up.
*/
package backup
