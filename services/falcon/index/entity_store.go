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
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// DescriptionResult is the outcome of a batched description fetch.
//
// Descriptions covers every requested identifier — total coverage is the
// contract, so the scorer never has to branch on missing entries. Degraded
// carries the failure reason when the lookup errored and every entry was
// substituted with "".
type DescriptionResult struct {
	// Descriptions maps each requested id to its resolved text ("" when the
	// entity is unknown or has no usable text).
	Descriptions map[string]string

	// Degraded is the failure reason when the lookup errored, or "".
	Degraded string
}

// FetchDescriptions resolves a description string for every candidate id in
// a single batched lookup.
//
// # Description
//
// One GraphQL query with a ContainsAny filter on `entityId` — the multi-get
// analog, one round trip regardless of batch size. Per id, resolution order
// is `description`, then `label`, then "". Ids absent from the store map to
// "". A transport or query failure degrades the whole batch to "" rather
// than failing the request.
//
// # Inputs
//
//   - ids: Unique candidate identifiers, already truncated to the request
//     limit. Empty input returns an empty map without a network call.
//
// # Outputs
//
//   - DescriptionResult: Descriptions has exactly one entry per input id.
//
// # Thread Safety
//
// Safe for concurrent use.
func (c *Client) FetchDescriptions(ctx context.Context, ids []string) DescriptionResult {
	descriptions := make(map[string]string, len(ids))
	for _, id := range ids {
		descriptions[id] = ""
	}
	if len(ids) == 0 {
		return DescriptionResult{Descriptions: descriptions}
	}

	where := filters.Where().
		WithPath([]string{"entityId"}).
		WithOperator(filters.ContainsAny).
		WithValueText(ids...)

	resp, err := c.conn.GraphQL().Get().
		WithClassName(c.entClass).
		WithFields(
			graphql.Field{Name: "entityId"},
			graphql.Field{Name: "label"},
			graphql.Field{Name: "description"},
		).
		WithWhere(where).
		WithLimit(len(ids)).
		Do(ctx)
	if err != nil {
		c.logger.Error("entity description fetch failed",
			slog.String("class", c.entClass),
			slog.Int("batch_size", len(ids)),
			slog.String("error", err.Error()),
		)
		return DescriptionResult{Descriptions: descriptions, Degraded: err.Error()}
	}
	if msg := graphqlErrors(resp); msg != "" {
		c.logger.Error("entity description query rejected",
			slog.String("class", c.entClass),
			slog.String("error", msg),
		)
		return DescriptionResult{Descriptions: descriptions, Degraded: msg}
	}

	for _, obj := range classObjects(resp, c.entClass) {
		id := stringField(obj, "entityId")
		if _, requested := descriptions[id]; !requested {
			continue // not part of this batch
		}
		text := stringField(obj, "description")
		if text == "" {
			text = stringField(obj, "label")
		}
		descriptions[id] = text
	}

	return DescriptionResult{Descriptions: descriptions}
}
