// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package preprocess implements the compression phase of the disambiguation
// pipeline: token normalization, stopword filtering, and n-gram generation.
//
// Compression densifies the semantic signal of a context window before it is
// embedded. "The Hilton hotel is expensive." becomes ["hilton", "hotel",
// "expensive"] — grammatical and structural noise is removed so the vectors
// downstream carry only content-bearing tokens.
package preprocess

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// DefaultCleanPattern removes every character that is not a letter, digit,
// or whitespace. Matches the `preprocessing.clean_regex` settings default.
const DefaultCleanPattern = `[^a-zA-Z0-9\s]`

// =============================================================================
// Stopword Set
// =============================================================================

// Stopwords is an immutable set of noise tokens loaded once at startup.
//
// # Description
//
// The extended stopword list filters structural noise (e.g. "http", "null")
// alongside grammatical noise (e.g. "the", "is"). The set is lowercase-keyed;
// callers are expected to pass already-normalized tokens to Contains.
//
// # Thread Safety
//
// Immutable after construction. Safe for concurrent use.
type Stopwords struct {
	words map[string]struct{}
}

// NewStopwords builds a set from an explicit word list. Words are lowercased.
func NewStopwords(words []string) *Stopwords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Stopwords{words: set}
}

// LoadStopwords reads a stopword list file, one word per line.
//
// # Description
//
// Blank lines and lines starting with '#' are skipped. A missing or
// unreadable file is a non-fatal condition: a warning is logged and an empty
// set is returned, which turns the stopword filter into a pass-through.
// Compression degrades; the pipeline does not.
//
// # Outputs
//
//   - *Stopwords: Never nil. Empty on load failure.
func LoadStopwords(path string, logger *slog.Logger) *Stopwords {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("stopwords file unavailable, compression disabled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &Stopwords{words: make(map[string]struct{})}
	}
	defer func() { _ = f.Close() }()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stopwords file read interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}

	logger.Info("stopwords loaded",
		slog.String("path", path),
		slog.Int("count", len(set)),
	)
	return &Stopwords{words: set}
}

// Contains reports whether the (normalized) token is a stopword.
func (s *Stopwords) Contains(token string) bool {
	_, ok := s.words[token]
	return ok
}

// Len returns the number of words in the set.
func (s *Stopwords) Len() int {
	return len(s.words)
}

// =============================================================================
// Context Compressor
// =============================================================================

// Compressor turns a raw context-token sequence into a dense token sequence.
//
// # Description
//
// For each token: lowercase, strip characters matching the clean pattern,
// then discard if the result is empty or a stopword. Order is preserved and
// duplicates are kept — token frequency is signal for the embedder.
//
// Compression is idempotent: compressing an already-compressed sequence
// yields the same sequence.
//
// # Thread Safety
//
// Immutable after construction. Safe for concurrent use.
type Compressor struct {
	clean     *regexp.Regexp
	stopwords *Stopwords
}

// NewCompressor compiles the configured clean pattern and binds the stopword
// set. An empty pattern falls back to DefaultCleanPattern. Returns an error
// only when the pattern does not compile.
func NewCompressor(cleanPattern string, stopwords *Stopwords) (*Compressor, error) {
	if cleanPattern == "" {
		cleanPattern = DefaultCleanPattern
	}
	re, err := regexp.Compile(cleanPattern)
	if err != nil {
		return nil, fmt.Errorf("compile clean pattern %q: %w", cleanPattern, err)
	}
	if stopwords == nil {
		stopwords = NewStopwords(nil)
	}
	return &Compressor{clean: re, stopwords: stopwords}, nil
}

// NormalizeToken lowercases the token and strips characters matching the
// clean pattern. Pure; may return an empty string.
func (c *Compressor) NormalizeToken(token string) string {
	return c.clean.ReplaceAllString(strings.ToLower(token), "")
}

// Compress applies NormalizeToken to every token and drops empty results and
// stopwords. An empty input yields an empty (non-nil) output.
func (c *Compressor) Compress(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		clean := c.NormalizeToken(token)
		if clean == "" || c.stopwords.Contains(clean) {
			continue
		}
		out = append(out, clean)
	}
	return out
}
