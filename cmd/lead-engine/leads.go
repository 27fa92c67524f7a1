// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lead-engine/internal/leads"
	"github.com/pdiddy/lead-engine/internal/source"
	"github.com/pdiddy/lead-engine/pkg/types"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Generate ranked leads from a company description",
}

var leadsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full pipeline: interpret, fetch, enrich, score, rank",
	Long: `Generate interprets the free-text company DNA, fetches candidate
profiles from the target platforms, enriches them, scores them against the
description, and prints the ranked leads.

Known profiles from the local store are considered alongside freshly
acquired ones; the output notes whether any returned lead came from the
database.`,
	RunE: runLeadsGenerate,
}

func init() {
	leadsGenerateCmd.Flags().String("dna", "", "free-text company description to match against (required)")
	leadsGenerateCmd.Flags().String("platform", "", "pin the target platform (github, twitter, linkedin)")
	leadsGenerateCmd.Flags().Int("limit", 0, "maximum number of leads (default 10)")
	leadsGenerateCmd.Flags().Bool("json", false, "output leads as JSON")

	leadsCmd.AddCommand(leadsGenerateCmd)
	rootCmd.AddCommand(leadsCmd)
}

func runLeadsGenerate(cmd *cobra.Command, args []string) error {
	dna, _ := cmd.Flags().GetString("dna")
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

	status := cmd.ErrOrStderr()
	result, err := pipeline.Generate(ctx, dna, platform, limit, status)
	if err != nil {
		var vErr *leads.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("%s (provide --dna with a company description)", vErr.Reason)
		}
		var cfgErr *source.ConfigError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("source misconfigured: %w", err)
		}
		return err
	}

	if jsonOutput {
		return leads.FormatJSON(result, os.Stdout)
	}
	leads.FormatTable(result, os.Stdout)
	return nil
}
