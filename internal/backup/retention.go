// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

// Prune removes all but the newest keep backup files and returns how many
// were deleted. A keep of zero or less deletes nothing.
func (m *Manager) Prune(keep int) (int, error) {
	if keep <= 0 || m.dir == "" {
		return 0, nil
	}
	files, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(files) <= keep {
		return 0, nil
	}

	removed := 0
	for _, f := range files[keep:] {
		if err := os.Remove(filepath.Join(m.dir, f.Name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove backup %s: %w", f.Name, err)
		}
		removed++
	}
	logging.Info().Int("removed", removed).Int("kept", keep).Msg("Old backups pruned")
	return removed, nil
}
