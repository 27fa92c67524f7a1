// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the profile store to dataDir/export.yaml. It
// supports the same filters as Query.
func (s *Store) ExportYAML(ctx context.Context, f Filter) (string, error) {
	f.MaxResults = exportLimit
	profiles, err := s.Query(ctx, f)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.dataDir, "export.yaml")
	data, err := yaml.Marshal(profiles)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ExportJSON writes the profile store to dataDir/export.json with the
// same filters as Query.
func (s *Store) ExportJSON(ctx context.Context, f Filter) (string, error) {
	f.MaxResults = exportLimit
	profiles, err := s.Query(ctx, f)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.dataDir, "export.json")
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
