// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package leads

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/lead-engine/pkg/types"
)

// FormatTable writes ranked leads as a human-readable table to w.
func FormatTable(result Result, w io.Writer) {
	if len(result.Leads) == 0 {
		fmt.Fprintln(w, "No leads found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-9s  %-6s  %-40s  %s\n",
		"Rank", "Name", "Platform", "Score", "Why", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, lead := range result.Leads {
		reasons := strings.Join(lead.Reasons, "; ")
		fmt.Fprintf(w, "%-4d  %-24s  %-9s  %-6.2f  %-40s  %s\n",
			i+1,
			truncate(lead.Profile.DisplayName(), 24),
			lead.Profile.Platform,
			lead.Score,
			truncate(reasons, 40),
			lead.Profile.ProfileURL)
		if lead.Profile.FitSummary != "" {
			fmt.Fprintf(w, "      %s\n", truncate(lead.Profile.FitSummary, 110))
		}
	}

	fmt.Fprintf(w, "\n%d leads (source: %s)\n", len(result.Leads), result.Source)
	for _, msg := range result.SourceErrors {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(result Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// FormatProfiles writes raw acquisition output: the profiles and a
// count, or a message when nothing matched.
func FormatProfiles(profiles []types.Profile, w io.Writer) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles found.")
		return
	}

	fmt.Fprintf(w, "%-24s  %-20s  %-9s  %-50s\n", "Name", "Username", "Platform", "Bio")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, p := range profiles {
		fmt.Fprintf(w, "%-24s  %-20s  %-9s  %-50s\n",
			truncate(p.DisplayName(), 24),
			truncate(p.Username, 20),
			p.Platform,
			truncate(strings.ReplaceAll(p.Bio, "\n", " "), 50))
	}
	fmt.Fprintf(w, "\n%d profiles\n", len(profiles))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
