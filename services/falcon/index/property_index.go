// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// PropertyResult is the outcome of a predicate inference lookup.
//
// Exactly one of three shapes: found (PID set), clean miss (PID empty,
// Degraded empty), or degraded miss (PID empty, Degraded carries the
// reason). A degraded miss behaves identically to a clean miss downstream;
// the reason exists so the orchestrator can log and count it.
type PropertyResult struct {
	// PID is the inferred predicate identifier (e.g. "P19"), or "" when
	// absent.
	PID string

	// Degraded is the failure reason when the lookup errored, or "".
	Degraded string
}

// Found reports whether a predicate was inferred.
func (r PropertyResult) Found() bool {
	return r.PID != ""
}

// Infer looks up the single best predicate match for the compressed context.
//
// # Description
//
// The full compressed window is joined into one query string and matched
// against the `label` property of the predicate class with a BM25 query,
// limit 1 — one round trip covers every sub-phrase, since BM25 ranks labels
// sharing any window token and a compound label ("place of burial") outranks
// fragments when the window carries its tokens. Token-level tolerance beyond
// BM25 ranking is the index's analyzer configuration, which this client
// treats as opaque.
//
// Empty tokens return absent without a network call. Any transport or query
// error is logged and returned as a degraded miss: property inference never
// aborts the pipeline.
//
// # Thread Safety
//
// Safe for concurrent use.
func (c *Client) Infer(ctx context.Context, tokens []string) PropertyResult {
	if len(tokens) == 0 {
		return PropertyResult{}
	}
	window := strings.TrimSpace(strings.Join(tokens, " "))
	if window == "" {
		return PropertyResult{}
	}

	pid, err := c.lookupProperty(ctx, window)
	if err != nil {
		c.logger.Warn("property inference lookup failed",
			slog.String("class", c.propClass),
			slog.String("window", window),
			slog.String("error", err.Error()),
		)
		return PropertyResult{Degraded: err.Error()}
	}
	return PropertyResult{PID: pid}
}

// lookupProperty runs one BM25 label query and returns the top hit's pid, or
// "" on a clean miss.
func (c *Client) lookupProperty(ctx context.Context, window string) (string, error) {
	resp, err := c.conn.GraphQL().Get().
		WithClassName(c.propClass).
		WithFields(
			graphql.Field{Name: "pid"},
			graphql.Field{Name: "label"},
		).
		WithBM25(c.conn.GraphQL().Bm25ArgBuilder().
			WithQuery(window).
			WithProperties("label")).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return "", err
	}
	if msg := graphqlErrors(resp); msg != "" {
		return "", errors.New(msg)
	}

	objects := classObjects(resp, c.propClass)
	if len(objects) == 0 {
		return "", nil
	}
	return stringField(objects[0], "pid"), nil
}
