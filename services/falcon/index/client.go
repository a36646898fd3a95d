// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index holds the Weaviate-backed clients for the two external
// collaborators the pipeline consumes: the predicate index (fuzzy label
// lookup → property id) and the entity store (batched id lookup →
// description/label).
//
// Both collaborators are opaque services: the pipeline issues queries and
// consumes fields; it never builds or maintains the collections. Every
// failure here is degradable by contract — callers receive a typed result
// carrying a degrade reason instead of an error, and fall back per the
// pipeline rules (absent predicate; empty descriptions).
package index

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// defaultTimeout bounds index calls when the config does not set one.
const defaultTimeout = 5 * time.Second

// Config configures the shared Weaviate connection and class names.
type Config struct {
	// URL is the Weaviate base URL (scheme + host).
	URL string

	// PropertiesClass is the predicate index class. Objects expose
	// `pid` (e.g. "P19") and `label` (e.g. "place of birth").
	PropertiesClass string

	// EntitiesClass is the entity store class. Objects expose `entityId`
	// (e.g. "Q90"), `label`, and `description`.
	EntitiesClass string

	// Timeout bounds every call. Zero uses defaultTimeout.
	Timeout time.Duration
}

// Client is the shared handle for both collaborators.
//
// # Thread Safety
//
// Safe for concurrent use after construction; the underlying connection is
// a stateless HTTP client.
type Client struct {
	conn      *weaviate.Client
	propClass string
	entClass  string
	logger    *slog.Logger
}

// NewClient parses cfg.URL and opens a Weaviate connection with the
// configured timeout. No network call is made here; reachability surfaces on
// first use (or via Ready).
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse weaviate url %q: %w", cfg.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("weaviate url %q must include scheme and host", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	conn := weaviate.New(weaviate.Config{
		Host:             u.Host,
		Scheme:           u.Scheme,
		ConnectionClient: &http.Client{Timeout: timeout},
	})

	return &Client{
		conn:      conn,
		propClass: cfg.PropertiesClass,
		entClass:  cfg.EntitiesClass,
		logger:    logger,
	}, nil
}

// Ready reports whether the Weaviate instance answers its readiness probe.
// Used by the health endpoint only; pipeline calls rely on per-call degrade
// handling instead.
func (c *Client) Ready(ctx context.Context) bool {
	ok, err := c.conn.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		c.logger.Warn("weaviate readiness probe failed",
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

// classObjects extracts the object list for class from a GraphQL Get
// response. Returns nil when the shape is missing or unexpected.
func classObjects(resp *models.GraphQLResponse, class string) []map[string]interface{} {
	if resp == nil {
		return nil
	}
	get, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := get[class].([]interface{})
	if !ok {
		return nil
	}
	objects := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]interface{}); ok {
			objects = append(objects, obj)
		}
	}
	return objects
}

// stringField reads a string property from a GraphQL object, tolerating
// missing or null fields.
func stringField(obj map[string]interface{}, field string) string {
	s, _ := obj[field].(string)
	return s
}

// graphqlErrors flattens resp.Errors into one message, or "" when clean.
func graphqlErrors(resp *models.GraphQLResponse) string {
	if resp == nil || len(resp.Errors) == 0 {
		return ""
	}
	msg := resp.Errors[0].Message
	if len(resp.Errors) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(resp.Errors)-1)
	}
	return msg
}
