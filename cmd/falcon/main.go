// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command falcon starts the entity disambiguation API server.
//
// Falcon ranks pre-supplied knowledge-base candidates against a short text
// context:
//   - Context compression (stopword + symbol stripping)
//   - Optional predicate inference from the compressed context
//   - Batched candidate description resolution
//   - Embedding-based cosine ranking with stable tie-breaks
//
// Usage:
//
//	go run ./cmd/falcon
//	go run ./cmd/falcon -port 9090 -config falcon_settings.yaml
//
// With a non-default embedding service:
//
//	EMBEDDING_SERVICE_URL=http://localhost:11434/api/embed EMBEDDING_MODEL=nomic-embed-text go run ./cmd/falcon
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8090/api/v1/health
//
//	# Disambiguate a mention
//	curl -X POST http://localhost:8090/api/v1/disambiguate \
//	  -H "Content-Type: application/json" \
//	  -d '{"surface_form": "Paris", "context_window": ["I", "love", "visiting"], "candidates": ["Q90", "Q47746"]}'
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/sentient-hq/falcon/services/falcon"
	"github.com/sentient-hq/falcon/services/falcon/config"
)

func main() {
	port := flag.Int("port", 0, "Port to listen on (overrides settings file)")
	configPath := flag.String("config", "", "Path to settings yaml (embedded defaults when empty)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so trace ids flow from callers through
	// every handler span.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load settings", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port != 0 {
		settings.Server.Port = *port
	}

	resources, err := falcon.BuildResources(settings, slog.Default())
	if err != nil {
		slog.Error("Failed to build resources", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("falcon"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/api/v1")
	falcon.RegisterRoutes(v1, resources.Handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(settings)

	// Graceful shutdown releases the vector cache DB before exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down Falcon server")
		if err := resources.Close(); err != nil {
			slog.Warn("Failed to close resources", slog.String("error", err.Error()))
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	slog.Info("Starting Falcon server",
		slog.String("address", addr),
		slog.String("model", resources.Embedder.Model()),
		slog.String("weaviate", settings.Weaviate.URL),
	)
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(settings *config.Settings) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                        FALCON API SERVER                          ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Context-aware entity disambiguation over a candidate set.        ║
║  Embedding model: %-40s        ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/api/v1/health                    │  ║
║  │                                                             │  ║
║  │ # Disambiguate a mention                                    │  ║
║  │ curl -X POST http://localhost:%d/api/v1/disambiguate \    │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"surface_form": "Paris",                             │  ║
║  │        "context_window": ["I", "love", "visiting"],         │  ║
║  │        "candidates": ["Q90", "Q47746"]}'                    │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /api/v1/disambiguate                                    ║
║  ├── GET  /api/v1/health                                          ║
║  └── GET  /metrics                                                ║
║                                                                   ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, settings.Embeddings.Model, settings.Server.Port, settings.Server.Port)
}
