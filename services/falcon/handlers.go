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

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// healthProbeTimeout bounds the readiness ping so a wedged index cannot
// stall the health endpoint.
const healthProbeTimeout = 2 * time.Second

// ReadinessChecker reports whether the backing index answers its probe.
type ReadinessChecker interface {
	Ready(ctx context.Context) bool
}

// Handlers holds the HTTP handlers for the disambiguation API.
type Handlers struct {
	service *Service
	ready   ReadinessChecker
	model   string
}

// NewHandlers creates the handler set. model is the embedding model name
// reported by the health endpoint.
func NewHandlers(service *Service, ready ReadinessChecker, model string) *Handlers {
	return &Handlers{
		service: service,
		ready:   ready,
		model:   model,
	}
}

// HandleDisambiguate handles POST /api/v1/disambiguate.
//
// Description:
//
//	Binds the request, runs the pipeline, and writes the ranked result.
//	Validation failures return 400 with a typed error body; a pipeline
//	failure returns 500 and never a partial candidate list.
//
// Response:
//
//	200 OK: DisambiguationResult
//	400 Bad Request: Malformed JSON or missing surface_form
//	500 Internal Server Error: Pipeline processing failure
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleDisambiguate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDisambiguate")

	var req DisambiguateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		recordRequest(http.StatusBadRequest)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	result, err := h.service.Disambiguate(c.Request.Context(), req)
	if err != nil {
		recordRequest(http.StatusInternalServerError)
		logger.Error("disambiguation failed",
			slog.String("surface_form", req.SurfaceForm),
			slog.String("error", err.Error()),
		)
		code := "INTERNAL_ERROR"
		if errors.Is(err, ErrProcessing) {
			code = "PROCESSING_ERROR"
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "disambiguation failed",
			Code:  code,
		})
		return
	}

	recordRequest(http.StatusOK)
	logger.Info("disambiguation complete",
		slog.String("surface_form", req.SurfaceForm),
		slog.Int("ranked", len(result.RankedCandidates)),
	)
	c.JSON(http.StatusOK, result)
}

// HandleHealth handles GET /api/v1/health.
//
// Description:
//
//	Reports service identity, the active embedding model, and a live
//	readiness ping against the index. The endpoint always returns 200;
//	"degraded" status with index_connected=false signals a reachable
//	service whose index is down.
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	connected := h.ready != nil && h.ready.Ready(ctx)
	status := "ok"
	if !connected {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:         status,
		Service:        "falcon",
		Model:          h.model,
		IndexConnected: connected,
	})
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
