// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

const (
	filePrefix     = "backup-"
	fileSuffix     = ".json"
	fileTimeFormat = "20060102T150405Z"
)

// Manager creates and restores backup documents.
type Manager struct {
	db  *database.DB
	dir string
	now func() time.Time
}

// NewManager creates a manager. An empty dir disables file output.
func NewManager(db *database.DB, dir string) (*Manager, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	return &Manager{
		db:  db,
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create exports users (admins excluded), companies, reviews and comments
// from one consistent transaction. When a directory is configured the
// document is also written there; the returned name is empty otherwise.
func (m *Manager) Create(ctx context.Context) (doc *Document, name string, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackupOperation("create", time.Since(start), err) }()

	doc = &Document{Version: Version, Timestamp: m.now().Truncate(time.Second)}
	err = m.db.WithTx(ctx, func(tx *database.Tx) error {
		users, err := tx.ListUsers(ctx)
		if err != nil {
			return err
		}
		doc.Data.Users = make([]*UserRecord, 0, len(users))
		for _, u := range users {
			if u.Role == models.RoleAdmin {
				doc.Data.AdminIDs = append(doc.Data.AdminIDs, u.ID)
				continue
			}
			doc.Data.Users = append(doc.Data.Users, recordFromUser(u))
		}

		if doc.Data.Companies, err = tx.ListCompanies(ctx); err != nil {
			return err
		}
		if doc.Data.Reviews, err = tx.ListReviews(ctx); err != nil {
			return err
		}
		doc.Data.Comments, err = tx.ListComments(ctx)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("export tables: %w", err)
	}

	if m.dir != "" {
		if name, err = m.write(doc); err != nil {
			return nil, "", err
		}
	}

	logging.Ctx(ctx).Info().
		Int("users", len(doc.Data.Users)).
		Int("companies", len(doc.Data.Companies)).
		Int("reviews", len(doc.Data.Reviews)).
		Int("comments", len(doc.Data.Comments)).
		Str("file", name).
		Msg("Backup created")
	return doc, name, nil
}

func (m *Manager) write(doc *Document) (string, error) {
	name := filePrefix + doc.Timestamp.Format(fileTimeFormat) + fileSuffix
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	// write then rename so List never sees a partial file
	tmp, err := os.CreateTemp(m.dir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(m.dir, name)); err != nil {
		return "", fmt.Errorf("rename backup file: %w", err)
	}
	return name, nil
}

// List returns the backup files in the directory, newest first.
func (m *Manager) List() ([]FileInfo, error) {
	files := []FileInfo{}
	if m.dir == "" {
		return files, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isBackupName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size(), CreatedAt: info.ModTime().UTC()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// Open reads a backup file previously written by Create.
func (m *Manager) Open(name string) (*Document, error) {
	if m.dir == "" || !isBackupName(name) || filepath.Base(name) != name {
		return nil, ErrFileNotFound
	}
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read backup file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode backup file: %w", err)
	}
	return &doc, nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}
