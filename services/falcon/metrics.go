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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_disambiguate_requests_total",
		Help: "Disambiguation requests by HTTP status code.",
	}, []string{"status"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "falcon_pipeline_duration_seconds",
		Help:    "End-to-end disambiguation pipeline latency.",
		Buckets: prometheus.DefBuckets,
	})

	degradedStages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_pipeline_degraded_total",
		Help: "Pipeline stages that fell back to degraded behavior.",
	}, []string{"stage"})
)

func recordRequest(status int) {
	requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func observePipelineDuration(d time.Duration) {
	pipelineDuration.Observe(d.Seconds())
}

func recordDegradedStage(stage string) {
	degradedStages.WithLabelValues(stage).Inc()
}
