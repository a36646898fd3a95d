// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps BadgerDB open/close for service-global caches.
//
// The wrapper exists so callers depend on a narrow surface (OpenDB, Close,
// View/Update passthrough) instead of the full badger API, and so every
// cache in the service opens its DB with the same options.
package badger

import (
	"fmt"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// Config holds the BadgerDB open options the service exposes.
type Config struct {
	// Path is the on-disk directory. Created if absent.
	Path string

	// SyncWrites forces fsync on every write. Caches favor throughput over
	// durability, so the default is false.
	SyncWrites bool
}

// DefaultConfig returns cache-appropriate defaults. Callers set Path.
func DefaultConfig() Config {
	return Config{
		SyncWrites: false,
	}
}

// DB is an open BadgerDB handle.
//
// Thread Safety: Safe for concurrent use. Badger transactions are
// per-goroutine.
type DB struct {
	db *dgbadger.DB
}

// OpenDB opens (or creates) the BadgerDB at cfg.Path.
//
// Badger's own logger is disabled; the service logs lifecycle events itself.
func OpenDB(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("badger: path must not be empty")
	}
	opts := dgbadger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", cfg.Path, err)
	}
	return &DB{db: db}, nil
}

// View runs a read-only transaction.
func (d *DB) View(fn func(txn *dgbadger.Txn) error) error {
	return d.db.View(fn)
}

// Update runs a read-write transaction.
func (d *DB) Update(fn func(txn *dgbadger.Txn) error) error {
	return d.db.Update(fn)
}

// Close releases the DB. Safe to call once at shutdown.
func (d *DB) Close() error {
	return d.db.Close()
}
