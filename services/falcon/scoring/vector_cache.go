// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

// Candidate vector cache.
//
// Design decisions:
//
//  1. Keys are SHA256(model NUL text): the hash captures every signal that
//     determines vector shape. A changed description or a swapped embedding
//     model produces a different key, so stale vectors are never served and
//     no explicit invalidation API is needed.
//
//  2. BadgerDB native TTL: expiry is enforced by Badger's GC, not by
//     application code. Expired keys return ErrKeyNotFound, which the store
//     treats as a cache miss.
//
//  3. Nil-safe: the Scorer checks for a nil VectorCacheStore and skips
//     persistence, operating in recompute-every-time mode. Correct for tests
//     and for deployments without a cache directory configured.
//
// Storage layout:
//
//	falcon/vec/v1/{sha256 hex}  →  gob-encoded []float32

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	badgerstore "github.com/sentient-hq/falcon/storage/badger"
)

// vectorCacheDefaultTTL is the default lifetime of a cached vector. Entity
// descriptions change rarely; a week keeps the hit rate high without letting
// stale data accumulate indefinitely.
const vectorCacheDefaultTTL = 7 * 24 * time.Hour

// vectorCacheKeyPrefix is prepended to the text hash to form the BadgerDB
// key. Versioned (v1) to allow future format changes without collision.
const vectorCacheKeyPrefix = "falcon/vec/v1/"

// VectorCacheStore persists candidate embedding vectors between requests.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type VectorCacheStore interface {
	// LoadVector retrieves the cached vector for key.
	//
	// Returns (nil, nil) on cache miss (key absent or TTL expired).
	// Returns (nil, error) on storage failure.
	LoadVector(ctx context.Context, key string) ([]float32, error)

	// SaveVector persists the vector under key with the store's TTL.
	// Failure is non-fatal to callers: the vector is already in hand.
	SaveVector(ctx context.Context, key string, vector []float32) error
}

// VectorCacheKey derives the cache key for an encode text under a model.
func VectorCacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// BadgerVectorCacheStore implements VectorCacheStore on a service-global
// BadgerDB instance.
//
// # Description
//
// Vectors are gob-encoded (~4 bytes per dimension; a 768-dim vector is
// ~3KB). TTL is enforced by Badger's native GC.
//
// # Thread Safety
//
// Safe for concurrent use.
type BadgerVectorCacheStore struct {
	db     *badgerstore.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewBadgerVectorCacheStore creates a store on the given DB. A zero ttl uses
// vectorCacheDefaultTTL.
func NewBadgerVectorCacheStore(db *badgerstore.DB, ttl time.Duration, logger *slog.Logger) *BadgerVectorCacheStore {
	if ttl <= 0 {
		ttl = vectorCacheDefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerVectorCacheStore{db: db, ttl: ttl, logger: logger}
}

// LoadVector implements VectorCacheStore.
func (s *BadgerVectorCacheStore) LoadVector(_ context.Context, key string) ([]float32, error) {
	var vector []float32
	err := s.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(vectorCacheKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&vector)
		})
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector cache load: %w", err)
	}
	return vector, nil
}

// SaveVector implements VectorCacheStore.
func (s *BadgerVectorCacheStore) SaveVector(_ context.Context, key string, vector []float32) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vector); err != nil {
		return fmt.Errorf("vector cache encode: %w", err)
	}
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry([]byte(vectorCacheKeyPrefix+key), buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("vector cache save: %w", err)
	}
	return nil
}
