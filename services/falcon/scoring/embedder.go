// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring embeds query and candidate texts and ranks candidates by
// bounded cosine similarity.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// defaultEmbedTimeout bounds a single embedding call when the config does not
// set one. Scoring is on the hot path; a few seconds is ample for a local
// Ollama call.
const defaultEmbedTimeout = 5 * time.Second

// ollamaEmbedReq is the Ollama /api/embed request body.
type ollamaEmbedReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbedResp is the Ollama /api/embed response body.
type ollamaEmbedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// TextEmbedder turns arbitrary text into a fixed-dimension vector.
//
// Implementations must be deterministic for identical input given a fixed
// model, and safe for concurrent use.
type TextEmbedder interface {
	// Embed returns the embedding vector for text. A failed call returns a
	// non-nil error; there is no fallback vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the model identifier, used for logging and cache keys.
	Model() string
}

// EmbedderConfig configures the Ollama embedding client.
type EmbedderConfig struct {
	// URL is the /api/embed endpoint. Empty falls back to
	// EMBEDDING_SERVICE_URL, then the local Ollama default.
	URL string

	// Model is the embedding model name. Empty falls back to
	// EMBEDDING_MODEL, then a sentence-embedding default.
	Model string

	// Timeout bounds each Embed call. Zero uses defaultEmbedTimeout.
	Timeout time.Duration
}

// Embedder calls an Ollama-compatible /api/embed endpoint.
//
// # Description
//
// One HTTP round trip per Embed call. Each call carries its own timeout; on
// timeout or transport failure the error is returned to the caller — per the
// pipeline's error taxonomy, a missing vector is fatal for the request, not
// degradable.
//
// # Thread Safety
//
// Safe for concurrent use.
type Embedder struct {
	url     string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// NewEmbedder creates an embedding client from cfg, applying the environment
// fallbacks described on EmbedderConfig.
func NewEmbedder(cfg EmbedderConfig, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}

	url := cfg.URL
	if url == "" {
		url = os.Getenv("EMBEDDING_SERVICE_URL")
	}
	if url == "" {
		url = "http://localhost:11434/api/embed"
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("EMBEDDING_MODEL")
	}
	if model == "" {
		model = "nomic-embed-text"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}

	return &Embedder{
		url:     url,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Model returns the configured embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// Embed calls the /api/embed endpoint and returns the embedding vector.
//
// # Outputs
//
//   - []float32: Non-empty vector on success.
//   - error: Non-nil on transport failure, non-200 status, unparseable
//     response, or an empty vector from the service.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbedReq{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed HTTP call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(body))
	}

	var embedResp ollamaEmbedResp
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("parse embed response: %w", err)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embed service returned empty vector")
	}

	return embedResp.Embeddings[0], nil
}
