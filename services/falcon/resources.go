// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package falcon

import (
	"fmt"
	"log/slog"

	"github.com/sentient-hq/falcon/services/falcon/config"
	"github.com/sentient-hq/falcon/services/falcon/index"
	"github.com/sentient-hq/falcon/services/falcon/preprocess"
	"github.com/sentient-hq/falcon/services/falcon/scoring"
	badgerstore "github.com/sentient-hq/falcon/storage/badger"
)

// Resources is the process-lifetime dependency bundle.
//
// Built once at startup, read-only afterwards; every request shares it. The
// bundle owns the BadgerDB handle and releases it on Close.
type Resources struct {
	Settings *config.Settings
	Index    *index.Client
	Embedder *scoring.Embedder
	Service  *Service
	Handlers *Handlers

	cacheDB *badgerstore.DB
}

// BuildResources assembles the pipeline from loaded settings.
//
// # Description
//
// Construction is eager for everything except network reachability: the
// Weaviate URL must parse, but neither the index nor the embedding service
// needs to be up. A configured cache directory that fails to open degrades to
// no caching with a warning rather than failing startup.
//
// # Outputs
//
//   - *Resources: Fully wired bundle. Caller must Close it on shutdown.
//   - error: Non-nil on misconfiguration (bad Weaviate URL, bad clean regex).
func BuildResources(settings *config.Settings, logger *slog.Logger) (*Resources, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stopwords := preprocess.LoadStopwords(settings.Preprocessing.StopwordsFile, logger)
	compressor, err := preprocess.NewCompressor(settings.Preprocessing.CleanRegex, stopwords)
	if err != nil {
		return nil, fmt.Errorf("build compressor: %w", err)
	}

	indexClient, err := index.NewClient(index.Config{
		URL:             settings.Weaviate.URL,
		PropertiesClass: settings.Weaviate.Classes.Properties,
		EntitiesClass:   settings.Weaviate.Classes.Entities,
		Timeout:         settings.WeaviateTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build index client: %w", err)
	}

	embedder := scoring.NewEmbedder(scoring.EmbedderConfig{
		URL:     settings.Embeddings.URL,
		Model:   settings.Embeddings.Model,
		Timeout: settings.EmbeddingTimeout(),
	}, logger)

	var cacheDB *badgerstore.DB
	var cache scoring.VectorCacheStore
	if settings.Cache.Dir != "" {
		cfg := badgerstore.DefaultConfig()
		cfg.Path = settings.Cache.Dir
		cacheDB, err = badgerstore.OpenDB(cfg)
		if err != nil {
			logger.Warn("vector cache unavailable, scoring without persistence",
				slog.String("dir", settings.Cache.Dir),
				slog.String("error", err.Error()),
			)
			cacheDB = nil
		} else {
			cache = scoring.NewBadgerVectorCacheStore(cacheDB, settings.CacheTTL(), logger)
		}
	}

	scorer := scoring.NewScorer(embedder, cache, logger)

	service := NewService(ServiceConfig{
		Compressor:    compressor,
		Inferencer:    indexClient,
		Resolver:      indexClient,
		Scorer:        scorer,
		MaxCandidates: settings.Thresholds.MaxCandidates,
		DefaultLimit:  settings.Thresholds.DefaultLimit,
		Logger:        logger,
	})

	return &Resources{
		Settings: settings,
		Index:    indexClient,
		Embedder: embedder,
		Service:  service,
		Handlers: NewHandlers(service, indexClient, embedder.Model()),
		cacheDB:  cacheDB,
	}, nil
}

// Close releases resources owned by the bundle. Safe to call once at
// shutdown.
func (r *Resources) Close() error {
	if r.cacheDB != nil {
		if err := r.cacheDB.Close(); err != nil {
			return fmt.Errorf("close vector cache: %w", err)
		}
	}
	return nil
}
