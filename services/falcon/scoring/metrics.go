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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// vectorCacheLookupsTotal counts vector cache lookups by outcome.
	// Labels: outcome (hit, miss)
	vectorCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "falcon",
		Subsystem: "scoring",
		Name:      "vector_cache_lookups_total",
		Help:      "Candidate vector cache lookups by outcome",
	}, []string{"outcome"})
)

func recordVectorCacheHit() {
	vectorCacheLookupsTotal.WithLabelValues("hit").Inc()
}

func recordVectorCacheMiss() {
	vectorCacheLookupsTotal.WithLabelValues("miss").Inc()
}
