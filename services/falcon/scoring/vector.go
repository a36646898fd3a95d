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

import "math"

// l2Norm computes the L2 (Euclidean) norm of a float32 vector.
func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// dotProduct computes the dot product of two float32 vectors.
// Mismatched lengths use the shorter.
func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// cosine computes the cosine similarity of two vectors in [-1, 1].
// Returns 0 when either vector has zero norm.
func cosine(a, b []float32) float64 {
	na := l2Norm(a)
	nb := l2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dotProduct(a, b) / (na * nb)
}

// clamp01 truncates a similarity into [0, 1]. Negative cosine carries no
// ranking signal here, and floating-point drift can push a self-similarity
// fractionally above 1.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// round4 rounds to 4 decimal digits for reproducible output.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
