// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package falcon orchestrates the entity disambiguation pipeline: context
// compression, property inference, description resolution, embedding-based
// scoring, and stable ranking, exposed over a small JSON API.
//
// The pipeline runs entirely per request over an immutable resource bundle.
// Collaborator failures split into two classes: degradable stages (property
// inference, description resolution) fall back and let the request proceed,
// while a scoring failure aborts the request with ErrProcessing — a ranking
// without real scores would be silently wrong.
package falcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sentient-hq/falcon/services/falcon/index"
	"github.com/sentient-hq/falcon/services/falcon/scoring"
)

// ErrProcessing marks a fatal per-request pipeline failure. Handlers map it
// to a 500; it never carries partial results.
var ErrProcessing = errors.New("disambiguation processing failed")

// ContextCompressor reduces a raw token stream to its content-bearing core.
type ContextCompressor interface {
	Compress(tokens []string) []string
}

// PropertyInferencer recovers an optional predicate id from the compressed
// context. Failures degrade to an absent property.
type PropertyInferencer interface {
	Infer(ctx context.Context, tokens []string) index.PropertyResult
}

// DescriptionResolver fetches a description per candidate id with total
// coverage. Failures degrade to empty descriptions.
type DescriptionResolver interface {
	FetchDescriptions(ctx context.Context, ids []string) index.DescriptionResult
}

// CandidateScorer ranks candidates against the query. Any failure here is
// fatal for the request.
type CandidateScorer interface {
	Score(ctx context.Context, surfaceForm, contextStr string, descriptions map[string]string, ids []string) ([]scoring.ScoredCandidate, error)
}

// ServiceConfig wires the pipeline stages and per-request bounds.
type ServiceConfig struct {
	Compressor ContextCompressor
	Inferencer PropertyInferencer
	Resolver   DescriptionResolver
	Scorer     CandidateScorer

	// MaxCandidates is the ceiling on candidates scored per request.
	MaxCandidates int

	// DefaultLimit applies when the request omits its limit.
	DefaultLimit int

	Logger *slog.Logger
}

// Service runs the disambiguation pipeline.
//
// # Thread Safety
//
// Safe for concurrent use. All state is read-only after construction; every
// request builds its own intermediate values.
type Service struct {
	compressor    ContextCompressor
	inferencer    PropertyInferencer
	resolver      DescriptionResolver
	scorer        CandidateScorer
	maxCandidates int
	defaultLimit  int
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		compressor:    cfg.Compressor,
		inferencer:    cfg.Inferencer,
		resolver:      cfg.Resolver,
		scorer:        cfg.Scorer,
		maxCandidates: cfg.MaxCandidates,
		defaultLimit:  cfg.DefaultLimit,
		logger:        logger,
		tracer:        otel.Tracer("services/falcon"),
	}
}

// Disambiguate runs the full pipeline for one request.
//
// # Description
//
// Candidates are truncated to the effective limit in input order, then every
// survivor is scored and returned — ranking reorders, it never drops. An
// empty candidate list returns an empty result immediately without touching
// any collaborator. Property inference and description resolution degrade on
// failure; a scoring failure returns ErrProcessing and no result.
//
// # Inputs
//
//   - ctx: Request context; cancellation propagates into every
//     collaborator call.
//   - req: Validated request. SurfaceForm must be non-empty (the handler
//     enforces this).
//
// # Outputs
//
//   - *DisambiguationResult: Ranked candidates, best first, ties in input
//     order. Nil on error.
//   - error: Wraps ErrProcessing on fatal failure.
//
// # Thread Safety
//
// Safe for concurrent use.
func (s *Service) Disambiguate(ctx context.Context, req DisambiguateRequest) (*DisambiguationResult, error) {
	ctx, span := s.tracer.Start(ctx, "falcon.disambiguate", trace.WithAttributes(
		attribute.Int("falcon.candidates.requested", len(req.Candidates)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observePipelineDuration(time.Since(start))
	}()

	ids := s.truncate(req.Candidates, req.Limit)
	span.SetAttributes(attribute.Int("falcon.candidates.scored", len(ids)))
	if len(ids) == 0 {
		return &DisambiguationResult{RankedCandidates: []RankedCandidate{}}, nil
	}

	tokens := s.compressor.Compress(req.ContextWindow)
	contextStr := strings.Join(tokens, " ")

	prop := s.inferencer.Infer(ctx, tokens)
	if prop.Degraded != "" {
		recordDegradedStage("property_inference")
		s.logger.Warn("property inference degraded",
			slog.String("reason", prop.Degraded),
		)
	}

	resolved := s.resolver.FetchDescriptions(ctx, ids)
	if resolved.Degraded != "" {
		recordDegradedStage("description_resolution")
		s.logger.Warn("description resolution degraded, scoring on surface form",
			slog.String("reason", resolved.Degraded),
		)
	}

	scored, err := s.scorer.Score(ctx, req.SurfaceForm, contextStr, resolved.Descriptions, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProcessing, err)
	}

	// Descending by score; SliceStable keeps ties in truncated input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	ranked := make([]RankedCandidate, len(scored))
	for i, sc := range scored {
		ranked[i] = RankedCandidate{ID: sc.ID, Score: sc.Score, Reason: sc.Reason}
	}

	result := &DisambiguationResult{RankedCandidates: ranked}
	if prop.Found() {
		pid := prop.PID
		result.InferredProperty = &pid
	}
	return result, nil
}

// truncate applies the default and ceiling to the requested limit and cuts
// the candidate list in input order.
func (s *Service) truncate(candidates []string, limit int) []string {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxCandidates {
		limit = s.maxCandidates
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
