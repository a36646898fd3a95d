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

// DisambiguateRequest is the body of POST /api/v1/disambiguate.
type DisambiguateRequest struct {
	// SurfaceForm is the ambiguous mention to resolve (e.g. "Paris").
	SurfaceForm string `json:"surface_form" binding:"required"`

	// ContextWindow is the ordered token sequence surrounding the mention
	// (e.g. ["I", "love", "visiting"]). May be empty; ranking then falls
	// back to the surface form alone.
	ContextWindow []string `json:"context_window"`

	// Candidates are the knowledge-base ids to rank (e.g. ["Q90", "Q47746"]).
	Candidates []string `json:"candidates"`

	// Limit caps how many candidates are scored. Zero or negative applies
	// the configured default; values above the configured ceiling are
	// clamped down to it.
	Limit int `json:"limit"`
}

// RankedCandidate is one scored entry of the response, in descending score
// order.
type RankedCandidate struct {
	// ID is the candidate's knowledge-base identifier.
	ID string `json:"id"`

	// Score is the bounded similarity in [0, 1], rounded to 4 decimals.
	Score float64 `json:"score"`

	// Reason is the human-readable confidence rationale.
	Reason string `json:"reason"`
}

// DisambiguationResult is the success body of POST /api/v1/disambiguate.
type DisambiguationResult struct {
	// InferredProperty is the predicate id recovered from the context, or
	// null when none was found. Informational; it never gates ranking.
	InferredProperty *string `json:"inferred_property"`

	// RankedCandidates holds every requested candidate (post-truncation),
	// best first. Never null; empty input yields an empty list.
	RankedCandidates []RankedCandidate `json:"ranked_candidates"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Model          string `json:"model"`
	IndexConnected bool   `json:"index_connected"`
}

// ErrorResponse is the uniform error body for 4xx/5xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
