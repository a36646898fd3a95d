// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command falconctl is a thin operator client for the Falcon API.
//
// Usage:
//
//	falconctl health
//	falconctl disambiguate Paris --context "I love visiting Paris" --candidates Q90,Q47746
//	falconctl disambiguate Paris --context "born in" --candidates Q90,Q47746 --limit 2
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentient-hq/falcon/services/falcon"
)

// serverURL, contextWindow, candidatesFlag, and limitFlag hold flag values
// shared across commands.
var (
	serverURL      string
	contextWindow  string
	candidatesFlag string
	limitFlag      int
)

const clientTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "falconctl",
		Short: "Operator client for the Falcon disambiguation API",
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Falcon server base URL")

	disambiguateCmd := &cobra.Command{
		Use:   "disambiguate <surface-form>",
		Short: "Rank candidate entities for a surface form",
		Args:  cobra.ExactArgs(1),
		Run:   runDisambiguate,
	}
	disambiguateCmd.Flags().StringVar(&contextWindow, "context", "", "Context text surrounding the mention")
	disambiguateCmd.Flags().StringVar(&candidatesFlag, "candidates", "", "Comma-separated candidate ids (e.g. Q90,Q47746)")
	disambiguateCmd.Flags().IntVar(&limitFlag, "limit", 0, "Max candidates to score (0 = server default)")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health and index connectivity",
		Run:   runHealth,
	}

	rootCmd.AddCommand(disambiguateCmd, healthCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDisambiguate(_ *cobra.Command, args []string) {
	var candidates []string
	for _, id := range strings.Split(candidatesFlag, ",") {
		if id = strings.TrimSpace(id); id != "" {
			candidates = append(candidates, id)
		}
	}

	// The API takes the context as a token array; the flag stays a plain
	// string for shell ergonomics.
	req := falcon.DisambiguateRequest{
		SurfaceForm:   args[0],
		ContextWindow: strings.Fields(contextWindow),
		Candidates:    candidates,
		Limit:         limitFlag,
	}
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	client := &http.Client{Timeout: clientTimeout}
	resp, err := client.Post(serverURL+"/api/v1/disambiguate", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, string(raw))
	}

	var result falcon.DisambiguationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Fatalf("Error parsing response: %v", err)
	}

	if result.InferredProperty != nil {
		fmt.Printf("Inferred property: %s\n", *result.InferredProperty)
	}
	fmt.Println("Ranked candidates:")
	for i, rc := range result.RankedCandidates {
		fmt.Printf("%d. %s  %.4f  %s\n", i+1, rc.ID, rc.Score, rc.Reason)
	}
}

func runHealth(_ *cobra.Command, _ []string) {
	client := &http.Client{Timeout: clientTimeout}
	resp, err := client.Get(serverURL + "/api/v1/health")
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}
