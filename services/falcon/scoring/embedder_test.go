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
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockEmbedServer returns deterministic unit vectors derived from the input
// text, so cosine similarity is reproducible across calls.
func mockEmbedServer(t *testing.T, dim int, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "simulated failure", status)
			return
		}

		var req ollamaEmbedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		vec := make([]float32, dim)
		seed := float32(len(req.Input)%dim+1) / float32(dim)
		for i := range vec {
			vec[i] = seed * float32(i+1)
		}
		norm := float32(0)
		for _, v := range vec {
			norm += v * v
		}
		norm = float32(math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] /= norm
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ollamaEmbedResp{Embeddings: [][]float32{vec}}); err != nil {
			t.Logf("mock server encode error: %v", err)
		}
	}))
}

func TestEmbedReturnsVector(t *testing.T) {
	srv := mockEmbedServer(t, 8, http.StatusOK)
	defer srv.Close()

	e := NewEmbedder(EmbedderConfig{URL: srv.URL, Model: "test-model"}, nil)
	vec, err := e.Embed(context.Background(), "paris capital of france")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("vector dim = %d, want 8", len(vec))
	}
}

func TestEmbedDeterministic(t *testing.T) {
	srv := mockEmbedServer(t, 8, http.StatusOK)
	defer srv.Close()

	e := NewEmbedder(EmbedderConfig{URL: srv.URL, Model: "test-model"}, nil)
	a, err := e.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at dim %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := mockEmbedServer(t, 8, http.StatusInternalServerError)
	defer srv.Close()

	e := NewEmbedder(EmbedderConfig{URL: srv.URL, Model: "test-model"}, nil)
	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestEmbedEmptyVectorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaEmbedResp{Embeddings: [][]float32{}})
	}))
	defer srv.Close()

	e := NewEmbedder(EmbedderConfig{URL: srv.URL, Model: "test-model"}, nil)
	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty vector response")
	}
}

func TestEmbedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewEmbedder(EmbedderConfig{URL: srv.URL, Model: "test-model", Timeout: 20 * time.Millisecond}, nil)
	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNewEmbedderDefaults(t *testing.T) {
	t.Setenv("EMBEDDING_SERVICE_URL", "")
	t.Setenv("EMBEDDING_MODEL", "")

	e := NewEmbedder(EmbedderConfig{}, nil)
	if e.Model() != "nomic-embed-text" {
		t.Errorf("Model = %q, want default", e.Model())
	}
	if e.url != "http://localhost:11434/api/embed" {
		t.Errorf("url = %q, want local default", e.url)
	}
}
