// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the Falcon service settings.
//
// Settings ship with embedded defaults; a yaml file passed to Load overrides
// them, and a handful of environment variables override endpoint fields on
// top of that. The loaded Settings value is immutable by convention and is
// injected into the resource bundle at startup.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_settings.yaml
var defaultSettingsYAML []byte

// Settings is the root configuration for the Falcon service.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Settings struct {
	Server        ServerSettings        `yaml:"server"`
	Weaviate      WeaviateSettings      `yaml:"weaviate"`
	Embeddings    EmbeddingSettings     `yaml:"embeddings"`
	Preprocessing PreprocessingSettings `yaml:"preprocessing"`
	Thresholds    ThresholdSettings     `yaml:"thresholds"`
	Cache         CacheSettings         `yaml:"cache"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WeaviateSettings configures the predicate-index / entity-store connection.
type WeaviateSettings struct {
	// URL is the Weaviate base URL (scheme + host).
	URL string `yaml:"url"`

	// TimeoutSeconds bounds every index call. There is no retry policy;
	// a timed-out call degrades per the pipeline's fallback rules.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	Classes WeaviateClasses `yaml:"classes"`
}

// WeaviateClasses names the two collections the pipeline consumes.
type WeaviateClasses struct {
	// Properties is the predicate index class (fields: pid, label).
	Properties string `yaml:"properties"`

	// Entities is the entity store class (fields: entityId, label, description).
	Entities string `yaml:"entities"`
}

// EmbeddingSettings configures the embedding inference endpoint.
type EmbeddingSettings struct {
	// URL is the Ollama-compatible /api/embed endpoint.
	URL string `yaml:"url"`

	// Model is the embedding model name. Scores are only comparable within
	// a single model; changing it invalidates any cached vectors.
	Model string `yaml:"model"`

	// TimeoutSeconds bounds each embedding call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// PreprocessingSettings configures the compression phase.
type PreprocessingSettings struct {
	// StopwordsFile is the extended stopword list path, relative to the
	// working directory. Missing file degrades the filter to a pass-through.
	StopwordsFile string `yaml:"stopwords_file"`

	// CleanRegex matches the characters to strip from each token.
	CleanRegex string `yaml:"clean_regex"`
}

// ThresholdSettings bounds per-request work.
type ThresholdSettings struct {
	// MaxCandidates is the CPU-safety ceiling on candidates scored per
	// request. Each candidate costs one embedding inference.
	MaxCandidates int `yaml:"max_candidates"`

	// DefaultLimit applies when a request omits its limit.
	DefaultLimit int `yaml:"default_limit"`
}

// CacheSettings configures the optional candidate-vector cache.
type CacheSettings struct {
	// Dir is the BadgerDB directory. Empty disables persistence.
	Dir string `yaml:"dir"`

	// TTLHours is the lifetime of a cached vector entry.
	TTLHours int `yaml:"ttl_hours"`
}

// WeaviateTimeout returns the index call timeout as a duration.
func (s *Settings) WeaviateTimeout() time.Duration {
	return time.Duration(s.Weaviate.TimeoutSeconds) * time.Second
}

// EmbeddingTimeout returns the embedding call timeout as a duration.
func (s *Settings) EmbeddingTimeout() time.Duration {
	return time.Duration(s.Embeddings.TimeoutSeconds) * time.Second
}

// CacheTTL returns the vector cache entry lifetime as a duration.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.Cache.TTLHours) * time.Hour
}

// Default returns the embedded default settings.
func Default() (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &s); err != nil {
		return nil, fmt.Errorf("parse embedded default settings: %w", err)
	}
	applyEnv(&s)
	return &s, nil
}

// Load reads settings from the given yaml file, layered over the embedded
// defaults. An empty path returns the defaults. Environment overrides are
// applied last in both cases.
func Load(path string) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &s); err != nil {
		return nil, fmt.Errorf("parse embedded default settings: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse settings file %s: %w", path, err)
		}
	}
	applyEnv(&s)
	if err := validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyEnv overlays endpoint environment variables. Names match the fleet
// deployment conventions so one compose file can configure every service.
func applyEnv(s *Settings) {
	if v := os.Getenv("FALCON_WEAVIATE_URL"); v != "" {
		s.Weaviate.URL = v
	}
	if v := os.Getenv("EMBEDDING_SERVICE_URL"); v != "" {
		s.Embeddings.URL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		s.Embeddings.Model = v
	}
	if v := os.Getenv("FALCON_CACHE_DIR"); v != "" {
		s.Cache.Dir = v
	}
}

func validate(s *Settings) error {
	if s.Thresholds.MaxCandidates < 1 {
		return fmt.Errorf("thresholds.max_candidates must be >= 1, got %d", s.Thresholds.MaxCandidates)
	}
	if s.Thresholds.DefaultLimit < 1 {
		return fmt.Errorf("thresholds.default_limit must be >= 1, got %d", s.Thresholds.DefaultLimit)
	}
	if s.Embeddings.Model == "" {
		return fmt.Errorf("embeddings.model must not be empty")
	}
	return nil
}
