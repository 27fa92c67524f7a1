// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lead-engine/internal/leads"
	"github.com/pdiddy/lead-engine/internal/source"
	"github.com/pdiddy/lead-engine/internal/store"
	"github.com/pdiddy/lead-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local profile store (query, export, stats, refresh)",
	Long: `Store manages the local SQLite profile database that persists every
lead the pipeline has returned. Use subcommands to query it, export it,
inspect counts, or refresh stale records from their source platform.`,
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query stored profiles with full-text search and filters",
	RunE:  runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	filter, err := filterFromFlags(cmd, args)
	if err != nil {
		return err
	}

	profiles, err := st.Query(context.Background(), filter)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}
	leads.FormatProfiles(profiles, os.Stdout)
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored profiles to YAML or JSON",
	Long: `Export writes the full profile store (or a filtered subset) to
export.yaml or export.json in the data directory. Supports the same
filter flags as query.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	filter, err := filterFromFlags(cmd, args)
	if err != nil {
		return err
	}

	var path string
	switch format {
	case "yaml", "":
		path, err = st.ExportYAML(context.Background(), filter)
	case "json":
		path, err = st.ExportJSON(context.Background(), filter)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- stats subcommand ---

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print profile counts per platform",
	RunE:  runStoreStats,
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("Store is empty.")
		return nil
	}

	platforms := make([]string, 0, len(stats))
	total := 0
	for p, n := range stats {
		platforms = append(platforms, string(p))
		total += n
	}
	sort.Strings(platforms)

	for _, p := range platforms {
		fmt.Printf("%-10s %d\n", p, stats[types.Platform(p)])
	}
	fmt.Printf("%-10s %d\n", "total", total)
	return nil
}

// --- refresh subcommand ---

var storeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch stored GitHub profiles by username and update the store",
	Long: `Refresh refetches every stored GitHub profile from the API by its
username and upserts the fresh data. Relevance scores are kept; bios,
follower counts, and timestamps are updated. Profiles that have gone
missing or inactive on the platform are left untouched.`,
	RunE: runStoreRefresh,
}

func runStoreRefresh(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	stored, err := st.ListByPlatform(ctx, types.PlatformGitHub)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Println("No github profiles to refresh.")
		return nil
	}

	byUsername := make(map[string]types.Profile, len(stored))
	usernames := make([]string, 0, len(stored))
	for _, p := range stored {
		if p.Username == "" {
			continue
		}
		byUsername[p.Username] = p
		usernames = append(usernames, p.Username)
	}

	cfg := pipelineConfig()
	gh := source.NewGitHub(cfg.Sources, nil, log)
	fresh, err := gh.FetchByUsernames(ctx, usernames)
	if err != nil {
		return err
	}

	// Carry over scoring state: a refresh updates platform data, not the
	// lead's standing.
	for i, p := range fresh {
		if old, ok := byUsername[p.Username]; ok {
			fresh[i].ID = old.ID
			fresh[i].SetScore(old.Score)
			fresh[i].FitSummary = old.FitSummary
			fresh[i].CreatedAt = old.CreatedAt
		}
	}
	if len(fresh) > 0 {
		if err := st.Upsert(ctx, fresh...); err != nil {
			return err
		}
	}

	fmt.Printf("Refreshed %d of %d github profiles.\n", len(fresh), len(usernames))
	return nil
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg := pipelineConfig()
	return store.New(cfg.Store)
}

func filterFromFlags(cmd *cobra.Command, args []string) (store.Filter, error) {
	var f store.Filter
	if len(args) > 0 {
		f.Text = args[0]
	}

	platformFlag, _ := cmd.Flags().GetString("platform")
	if platformFlag != "" {
		p, err := types.ParsePlatform(platformFlag)
		if err != nil {
			return store.Filter{}, err
		}
		f.Platform = p
	}

	f.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	f.Tag, _ = cmd.Flags().GetString("tag")
	f.MaxResults, _ = cmd.Flags().GetInt("max-results")
	return f, nil
}

func init() {
	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("platform", "", "filter by platform")
		c.Flags().Float64("min-score", 0, "filter by minimum score")
		c.Flags().String("tag", "", "filter by tag")
		c.Flags().Int("max-results", 0, "maximum results (default from config)")
	}
	storeQueryCmd.Flags().Bool("json", false, "output profiles as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeRefreshCmd)
	rootCmd.AddCommand(storeCmd)
}
