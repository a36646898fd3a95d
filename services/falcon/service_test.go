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
	"fmt"
	"strings"
	"testing"

	"github.com/sentient-hq/falcon/services/falcon/index"
	"github.com/sentient-hq/falcon/services/falcon/preprocess"
	"github.com/sentient-hq/falcon/services/falcon/scoring"
)

// identityCompressor passes tokens through unchanged.
type identityCompressor struct{}

func (identityCompressor) Compress(tokens []string) []string { return tokens }

type fakeInferencer struct {
	result index.PropertyResult
	called bool
	tokens []string
}

func (f *fakeInferencer) Infer(_ context.Context, tokens []string) index.PropertyResult {
	f.called = true
	f.tokens = tokens
	return f.result
}

type fakeResolver struct {
	result   index.DescriptionResult
	called   bool
	gotIDs   []string
	degraded string
}

func (f *fakeResolver) FetchDescriptions(_ context.Context, ids []string) index.DescriptionResult {
	f.called = true
	f.gotIDs = ids
	if f.degraded != "" {
		descs := make(map[string]string, len(ids))
		for _, id := range ids {
			descs[id] = ""
		}
		return index.DescriptionResult{Descriptions: descs, Degraded: f.degraded}
	}
	if f.result.Descriptions == nil {
		descs := make(map[string]string, len(ids))
		for _, id := range ids {
			descs[id] = "description of " + id
		}
		return index.DescriptionResult{Descriptions: descs}
	}
	return f.result
}

type fakeScorer struct {
	scores map[string]float64
	err    error
	called bool
	gotIDs []string
	descs  map[string]string
}

func (f *fakeScorer) Score(_ context.Context, _, _ string, descriptions map[string]string, ids []string) ([]scoring.ScoredCandidate, error) {
	f.called = true
	f.gotIDs = ids
	f.descs = descriptions
	if f.err != nil {
		return nil, f.err
	}
	out := make([]scoring.ScoredCandidate, len(ids))
	for i, id := range ids {
		out[i] = scoring.ScoredCandidate{ID: id, Score: f.scores[id], Reason: "Low Context Similarity"}
	}
	return out, nil
}

func newTestService(inf *fakeInferencer, res *fakeResolver, sc *fakeScorer) *Service {
	return NewService(ServiceConfig{
		Compressor:    identityCompressor{},
		Inferencer:    inf,
		Resolver:      res,
		Scorer:        sc,
		MaxCandidates: 10,
		DefaultLimit:  3,
	})
}

func TestDisambiguateEmptyCandidatesShortCircuits(t *testing.T) {
	inf := &fakeInferencer{}
	res := &fakeResolver{}
	sc := &fakeScorer{}
	svc := newTestService(inf, res, sc)

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm:   "Paris",
		ContextWindow: []string{"I", "love", "visiting", "Paris"},
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if got.InferredProperty != nil {
		t.Errorf("InferredProperty = %v, want nil", *got.InferredProperty)
	}
	if got.RankedCandidates == nil || len(got.RankedCandidates) != 0 {
		t.Errorf("RankedCandidates = %v, want empty non-nil list", got.RankedCandidates)
	}
	if inf.called || res.called || sc.called {
		t.Error("collaborators were called for an empty candidate set")
	}
}

func TestDisambiguateTruncatesInInputOrder(t *testing.T) {
	sc := &fakeScorer{scores: map[string]float64{}}
	svc := newTestService(&fakeInferencer{}, &fakeResolver{}, sc)

	_, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm: "Paris",
		Candidates:  []string{"Q1", "Q2", "Q3", "Q4"},
		Limit:       2,
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if want := []string{"Q1", "Q2"}; !equalStrings(sc.gotIDs, want) {
		t.Errorf("scored ids = %v, want %v", sc.gotIDs, want)
	}
}

func TestDisambiguateDefaultAndCeilingLimits(t *testing.T) {
	candidates := []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8", "Q9", "Q10", "Q11", "Q12"}

	cases := []struct {
		name      string
		limit     int
		wantCount int
	}{
		{"omitted limit applies default", 0, 3},
		{"negative limit applies default", -5, 3},
		{"oversized limit clamps to ceiling", 500, 10},
		{"in-range limit honored", 5, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := &fakeScorer{scores: map[string]float64{}}
			svc := newTestService(&fakeInferencer{}, &fakeResolver{}, sc)

			got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
				SurfaceForm: "Paris",
				Candidates:  candidates,
				Limit:       tc.limit,
			})
			if err != nil {
				t.Fatalf("Disambiguate: %v", err)
			}
			if len(got.RankedCandidates) != tc.wantCount {
				t.Errorf("ranked %d candidates, want %d", len(got.RankedCandidates), tc.wantCount)
			}
		})
	}
}

func TestDisambiguateSortsDescending(t *testing.T) {
	sc := &fakeScorer{scores: map[string]float64{"Q1": 0.2, "Q2": 0.9, "Q3": 0.5}}
	svc := newTestService(&fakeInferencer{}, &fakeResolver{}, sc)

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm: "Paris",
		Candidates:  []string{"Q1", "Q2", "Q3"},
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	gotIDs := rankedIDs(got)
	if want := []string{"Q2", "Q3", "Q1"}; !equalStrings(gotIDs, want) {
		t.Errorf("ranking = %v, want %v", gotIDs, want)
	}
}

func TestDisambiguateStableTieBreak(t *testing.T) {
	// Identical scores must preserve truncated input order, every run.
	sc := &fakeScorer{scores: map[string]float64{"Q9": 0.5, "Q2": 0.5, "Q7": 0.5}}
	svc := newTestService(&fakeInferencer{}, &fakeResolver{}, sc)

	for run := 0; run < 10; run++ {
		got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
			SurfaceForm: "Paris",
			Candidates:  []string{"Q9", "Q2", "Q7"},
		})
		if err != nil {
			t.Fatalf("Disambiguate: %v", err)
		}
		gotIDs := rankedIDs(got)
		if want := []string{"Q9", "Q2", "Q7"}; !equalStrings(gotIDs, want) {
			t.Fatalf("run %d: tie order = %v, want input order %v", run, gotIDs, want)
		}
	}
}

func TestDisambiguateScorerFailureIsFatal(t *testing.T) {
	sc := &fakeScorer{err: fmt.Errorf("embed service returned 500")}
	svc := newTestService(&fakeInferencer{}, &fakeResolver{}, sc)

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm: "Paris",
		Candidates:  []string{"Q90"},
	})
	if got != nil {
		t.Errorf("result = %v, want nil on failure", got)
	}
	if !errors.Is(err, ErrProcessing) {
		t.Errorf("err = %v, want ErrProcessing", err)
	}
}

func TestDisambiguateDegradedResolverStillRanks(t *testing.T) {
	res := &fakeResolver{degraded: "index unreachable"}
	sc := &fakeScorer{scores: map[string]float64{"Q90": 0.3}}
	svc := newTestService(&fakeInferencer{}, res, sc)

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm: "Paris",
		Candidates:  []string{"Q90"},
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if len(got.RankedCandidates) != 1 {
		t.Fatalf("ranked = %v, want one entry", got.RankedCandidates)
	}
	if sc.descs["Q90"] != "" {
		t.Errorf("scorer saw description %q, want empty fallback", sc.descs["Q90"])
	}
}

func TestDisambiguateInferredProperty(t *testing.T) {
	inf := &fakeInferencer{result: index.PropertyResult{PID: "P19"}}
	sc := &fakeScorer{scores: map[string]float64{"Q90": 0.5}}
	svc := newTestService(inf, &fakeResolver{}, sc)

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm:   "Paris",
		ContextWindow: []string{"born", "in"},
		Candidates:    []string{"Q90"},
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if got.InferredProperty == nil || *got.InferredProperty != "P19" {
		t.Errorf("InferredProperty = %v, want P19", got.InferredProperty)
	}
	if want := []string{"born", "in"}; !equalStrings(inf.tokens, want) {
		t.Errorf("inferencer tokens = %v, want %v", inf.tokens, want)
	}
}

// bagEmbedder is a deterministic bag-of-words embedder for end-to-end runs
// without an embedding service.
type bagEmbedder struct {
	vocab []string
}

func (e *bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab)+1)
	vec[len(e.vocab)] = 0.001 // guard dim keeps every vector non-zero
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for i, v := range e.vocab {
			if word == v {
				vec[i]++
			}
		}
	}
	return vec, nil
}

func (e *bagEmbedder) Model() string { return "bag-of-words-test" }

// The Paris walkthrough: stopword compression plus description scoring must
// rank the city above the person for a travel context.
func TestDisambiguateParisEndToEnd(t *testing.T) {
	stopwords := preprocess.NewStopwords([]string{"i", "love"})
	compressor, err := preprocess.NewCompressor(preprocess.DefaultCleanPattern, stopwords)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}

	embedder := &bagEmbedder{vocab: []string{
		"paris", "visiting", "city", "capital", "france", "person", "socialite", "american",
	}}
	scorer := scoring.NewScorer(embedder, nil, nil)

	res := &fakeResolver{result: index.DescriptionResult{Descriptions: map[string]string{
		"Q90":    "capital city of France",
		"Q47746": "American socialite and media person",
	}}}

	svc := NewService(ServiceConfig{
		Compressor:    compressor,
		Inferencer:    &fakeInferencer{},
		Resolver:      res,
		Scorer:        scorer,
		MaxCandidates: 10,
		DefaultLimit:  3,
	})

	got, err := svc.Disambiguate(context.Background(), DisambiguateRequest{
		SurfaceForm:   "Paris",
		ContextWindow: []string{"I", "love", "visiting", "the", "capital", "of", "France"},
		Candidates:    []string{"Q47746", "Q90"},
	})
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}

	gotIDs := rankedIDs(got)
	if want := []string{"Q90", "Q47746"}; !equalStrings(gotIDs, want) {
		t.Fatalf("ranking = %v, want city first: %v", gotIDs, want)
	}
	for _, rc := range got.RankedCandidates {
		if rc.Score < 0 || rc.Score > 1 {
			t.Errorf("score %v for %s out of [0,1]", rc.Score, rc.ID)
		}
		if rc.Reason == "" {
			t.Errorf("empty reason for %s", rc.ID)
		}
	}
}

func rankedIDs(result *DisambiguationResult) []string {
	ids := make([]string, len(result.RankedCandidates))
	for i, rc := range result.RankedCandidates {
		ids[i] = rc.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
