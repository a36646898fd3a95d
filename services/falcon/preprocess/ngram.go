// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preprocess

import "strings"

// NGrams returns every contiguous window of length n, for each n in
// [nMin, nMax], joined into a single space-delimited string.
//
// # Description
//
// Windows are emitted left-to-right within each n, in increasing-n order.
// Used to surface compound predicates ("born in", "mayor of") that single
// tokens would miss. nMin is clamped to 1; a range that covers no windows
// yields an empty (non-nil) slice.
//
// Pure, stateless, deterministic.
func NGrams(tokens []string, nMin, nMax int) []string {
	if nMin < 1 {
		nMin = 1
	}
	ngrams := []string{}
	for n := nMin; n <= nMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			ngrams = append(ngrams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return ngrams
}
