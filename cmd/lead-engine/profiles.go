// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lead-engine/internal/leads"
	"github.com/pdiddy/lead-engine/pkg/types"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Fetch raw candidate profiles without scoring",
}

var profilesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run acquisition only and print the raw profiles",
	Long: `Fetch interprets the query text and runs the platform adapters,
printing the acquired profiles without enrichment, scoring, or ranking.
Useful for inspecting what the sources return for a given query.`,
	RunE: runProfilesFetch,
}

func init() {
	profilesFetchCmd.Flags().String("query", "", "free-text search query (required)")
	profilesFetchCmd.Flags().String("platform", "", "pin the target platform (github, twitter, linkedin)")
	profilesFetchCmd.Flags().Int("limit", 0, "maximum profiles per platform (default 10)")
	profilesFetchCmd.Flags().Bool("json", false, "output profiles as JSON")

	profilesCmd.AddCommand(profilesFetchCmd)
	rootCmd.AddCommand(profilesCmd)
}

func runProfilesFetch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	platformFlag, _ := cmd.Flags().GetString("platform")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var platform types.Platform
	if platformFlag != "" {
		p, err := types.ParsePlatform(platformFlag)
		if err != nil {
			return err
		}
		platform = p
	}

	ctx := context.Background()
	cfg := pipelineConfig()
	pipeline, st, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	profiles, err := pipeline.FetchAll(ctx, query, platform, limit, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}
	leads.FormatProfiles(profiles, os.Stdout)
	return nil
}
