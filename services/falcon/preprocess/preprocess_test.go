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

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testCompressor(t *testing.T, stopwords ...string) *Compressor {
	t.Helper()
	c, err := NewCompressor("", NewStopwords(stopwords))
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	return c
}

func TestNormalizeToken(t *testing.T) {
	c := testCompressor(t)

	cases := []struct {
		in   string
		want string
	}{
		{"Hotel,", "hotel"},
		{"PARIS", "paris"},
		{"don't", "dont"},
		{"...", ""},
		{"Q90", "q90"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := c.NormalizeToken(tc.in); got != tc.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompressFiltersStopwordsAndNoise(t *testing.T) {
	c := testCompressor(t, "the", "is")

	got := c.Compress([]string{"The", "Hilton", "hotel", "is", "expensive", "."})
	want := []string{"hilton", "hotel", "expensive"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compress = %v, want %v", got, want)
	}
}

func TestCompressPreservesOrderAndDuplicates(t *testing.T) {
	c := testCompressor(t)

	got := c.Compress([]string{"paris", "hotel", "paris"})
	want := []string{"paris", "hotel", "paris"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compress = %v, want %v", got, want)
	}
}

func TestCompressEmptyInput(t *testing.T) {
	c := testCompressor(t, "the")

	got := c.Compress(nil)
	if len(got) != 0 {
		t.Errorf("Compress(nil) = %v, want empty", got)
	}
	got = c.Compress([]string{})
	if len(got) != 0 {
		t.Errorf("Compress([]) = %v, want empty", got)
	}
}

// Compression is idempotent: compressing an already-compressed sequence
// yields the same sequence.
func TestCompressIdempotent(t *testing.T) {
	c := testCompressor(t, "i", "love", "the")

	raw := []string{"I", "love", "visiting", "Paris,", "France!"}
	once := c.Compress(raw)
	twice := c.Compress(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("compression not idempotent: first %v, second %v", once, twice)
	}
}

func TestNewCompressorBadPattern(t *testing.T) {
	if _, err := NewCompressor("[unclosed", nil); err == nil {
		t.Fatal("expected error for invalid clean pattern")
	}
}

func TestLoadStopwordsSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.txt")
	content := "# extended english stopwords\nthe\n\nIS\n  of  \n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sw := LoadStopwords(path, slog.Default())
	if sw.Len() != 3 {
		t.Fatalf("Len = %d, want 3", sw.Len())
	}
	for _, w := range []string{"the", "is", "of"} {
		if !sw.Contains(w) {
			t.Errorf("Contains(%q) = false, want true", w)
		}
	}
	if sw.Contains("# extended english stopwords") {
		t.Error("comment line leaked into the set")
	}
}

// A missing stopword list degrades the filter to a pass-through; it never
// fails the caller.
func TestLoadStopwordsMissingFile(t *testing.T) {
	sw := LoadStopwords(filepath.Join(t.TempDir(), "nope.txt"), slog.Default())
	if sw == nil {
		t.Fatal("LoadStopwords returned nil")
	}
	if sw.Len() != 0 {
		t.Fatalf("Len = %d, want 0", sw.Len())
	}

	c, err := NewCompressor("", sw)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	got := c.Compress([]string{"the", "hilton"})
	want := []string{"the", "hilton"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pass-through Compress = %v, want %v", got, want)
	}
}
