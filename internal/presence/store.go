// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package presence keeps last-seen timestamps in BadgerDB.
package presence

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

const (
	prefixOnline   = "online:"
	prefixLastSeen = "seen:"
)

// ErrUnknown is returned when a user has never connected.
var ErrUnknown = errors.New("presence unknown")

// Status is the presence of one user.
type Status struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// Store records online/offline transitions.
type Store struct {
	db *badger.DB
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	if path != "" {
		// online flags do not survive a restart: no socket does
		if err := db.DropPrefix([]byte(prefixOnline)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("reset online flags: %w", err)
		}
	}

	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Presence store opened")
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UTC().UnixMicro()))
	return buf
}

func decodeTime(b []byte) (time.Time, error) {
	if len(b) != 8 {
		return time.Time{}, fmt.Errorf("corrupt timestamp of %d bytes", len(b))
	}
	return time.UnixMicro(int64(binary.BigEndian.Uint64(b))).UTC(), nil
}

// MarkOnline records that userID connected at at.
func (s *Store) MarkOnline(ctx context.Context, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixOnline+userID), encodeTime(at)); err != nil {
			return err
		}
		return txn.Set([]byte(prefixLastSeen+userID), encodeTime(at))
	})
}

// MarkOffline clears the online flag and sets last seen to at.
func (s *Store) MarkOffline(ctx context.Context, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefixOnline + userID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(prefixLastSeen+userID), encodeTime(at))
	})
}

// Get returns the stored presence of userID, or ErrUnknown.
func (s *Store) Get(ctx context.Context, userID string) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := &Status{UserID: userID}
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixOnline + userID)); err == nil {
			status.Online = true
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		item, err := txn.Get([]byte(prefixLastSeen + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUnknown
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			t, err := decodeTime(val)
			if err != nil {
				return err
			}
			status.LastSeen = &t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}
