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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the disambiguation API with the router group.
//
// Description:
//
//	Registers all /api/v1/* endpoints with the given Gin router group.
//	The group should already carry any required middleware.
//
// Endpoints:
//
//	POST /api/v1/disambiguate - Rank candidates for a surface form
//	GET  /api/v1/health - Health and index connectivity check
//
// Example:
//
//	handlers := falcon.NewHandlers(service, indexClient, settings.Embeddings.Model)
//
//	v1 := router.Group("/api/v1")
//	falcon.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/disambiguate", handlers.HandleDisambiguate)
	rg.GET("/health", handlers.HandleHealth)
}
