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

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// scoreConcurrency is the number of parallel candidate embedding calls.
// Bounded so a large candidate set cannot saturate the embedding service.
const scoreConcurrency = 4

// Reason thresholds. The boundaries are a contract with downstream
// consumers (the UI confidence bar buckets on them); the wording is not.
const (
	strongThreshold   = 0.8
	moderateThreshold = 0.4
)

// ScoredCandidate is one ranked candidate: identifier, bounded similarity
// score, and a human-readable rationale. Created once, never mutated.
type ScoredCandidate struct {
	ID     string
	Score  float64
	Reason string
}

// Scorer ranks candidates by cosine similarity between the query embedding
// (surface form + compressed context) and each candidate's description
// embedding.
//
// # Description
//
// Pure given its inputs and the embedding function: no index calls happen
// here, only embedding computations. Candidate embeds run concurrently under
// a bounded errgroup; results land in input order. Any embedding failure
// fails the whole call — a missing vector has no graceful fallback.
//
// The optional VectorCacheStore short-circuits candidate embeds for texts
// scored before. Cache failures are logged and ignored; the cache is an
// optimization, never a correctness dependency.
//
// # Thread Safety
//
// Safe for concurrent use.
type Scorer struct {
	embedder TextEmbedder
	cache    VectorCacheStore // nil = recompute every time
	logger   *slog.Logger
}

// NewScorer creates a Scorer. cache may be nil.
func NewScorer(embedder TextEmbedder, cache VectorCacheStore, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

// Score ranks every candidate id against the query.
//
// # Description
//
// The query text is the surface form concatenated with the compressed
// context string; an empty context scores on the surface form alone. Each
// candidate's encode text is its resolved description, falling back to the
// surface form when the description is empty — embedding an empty string
// yields a degenerate vector.
//
// Scores are cosine similarities clamped into [0, 1] and rounded to 4
// decimal digits. Output order equals input order; sorting is the
// orchestrator's concern.
//
// # Inputs
//
//   - surfaceForm: The ambiguous mention. Must be non-empty.
//   - contextStr: Space-joined compressed context. May be empty.
//   - descriptions: Resolved description per candidate id. Missing or empty
//     entries fall back to the surface form.
//   - ids: Candidate identifiers, already truncated to the request limit.
//
// # Outputs
//
//   - []ScoredCandidate: One entry per input id, same order. Nil on error.
//   - error: Non-nil when any embedding call fails.
func (s *Scorer) Score(ctx context.Context, surfaceForm, contextStr string, descriptions map[string]string, ids []string) ([]ScoredCandidate, error) {
	queryText := strings.TrimSpace(surfaceForm + " " + contextStr)
	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}

	results := make([]ScoredCandidate, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			encodeText := descriptions[id]
			if encodeText == "" {
				encodeText = surfaceForm
			}

			candidateVec, err := s.candidateVector(gctx, encodeText)
			if err != nil {
				return fmt.Errorf("embed candidate %s: %w", id, err)
			}

			score := round4(clamp01(cosine(queryVec, candidateVec)))
			results[i] = ScoredCandidate{
				ID:     id,
				Score:  score,
				Reason: reasonFor(score),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// candidateVector returns the embedding for encodeText, consulting the cache
// first when one is configured.
func (s *Scorer) candidateVector(ctx context.Context, encodeText string) ([]float32, error) {
	var key string
	if s.cache != nil {
		key = VectorCacheKey(s.embedder.Model(), encodeText)
		cached, err := s.cache.LoadVector(ctx, key)
		if err != nil {
			s.logger.Warn("vector cache load failed, embedding directly",
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			recordVectorCacheHit()
			return cached, nil
		} else {
			recordVectorCacheMiss()
		}
	}

	vec, err := s.embedder.Embed(ctx, encodeText)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveVector(ctx, key, vec); err != nil {
			s.logger.Warn("vector cache save failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return vec, nil
}

// reasonFor maps a bounded score to the confidence-bar rationale string.
func reasonFor(score float64) string {
	switch {
	case score > strongThreshold:
		return fmt.Sprintf("Strong Context Match (%d%%)", int(score*100))
	case score > moderateThreshold:
		return fmt.Sprintf("Moderate Context Overlap (%d%%)", int(score*100))
	default:
		return "Low Context Similarity"
	}
}
