// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/lead-engine/internal/browser"
	"github.com/pdiddy/lead-engine/internal/embed"
	"github.com/pdiddy/lead-engine/internal/enrich"
	"github.com/pdiddy/lead-engine/internal/leads"
	"github.com/pdiddy/lead-engine/internal/source"
	"github.com/pdiddy/lead-engine/internal/store"
	"github.com/pdiddy/lead-engine/pkg/types"
)

const defaultUserAgent = "lead-engine/0.1"

// pipelineConfig assembles the stage configuration from viper (config
// file and environment) with secrets filling in absent credentials.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("default_limit", 10)
	viper.SetDefault("enrich_workers", 4)
	viper.SetDefault("sources.timeout", 30*time.Second)
	viper.SetDefault("sources.user_agent", defaultUserAgent)
	viper.SetDefault("sources.enable_scraping", true)
	viper.SetDefault("sources.inter_platform_delay", time.Second)
	viper.SetDefault("ai.provider", string(types.ProviderClaude))
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("store.max_results", 20)

	cfg := types.PipelineConfig{
		DefaultLimit:  viper.GetInt("default_limit"),
		EnrichWorkers: viper.GetInt("enrich_workers"),
		Sources: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: viper.GetString("sources.user_agent"),
			},
			GitHubToken:        secretDefault("github-token", viper.GetString("sources.github_token")),
			TwitterBearerToken: secretDefault("twitter-bearer-token", viper.GetString("sources.twitter_bearer_token")),
			EnableScraping:     viper.GetBool("sources.enable_scraping"),
			InterPlatformDelay: viper.GetDuration("sources.inter_platform_delay"),
		},
		AI: types.AIConfig{
			Provider:   types.AIProvider(viper.GetString("ai.provider")),
			Model:      viper.GetString("ai.model"),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Embedding: types.EmbeddingConfig{
			APIKey: secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
			Model:  viper.GetString("embedding.model"),
		},
		Store: types.StoreConfig{
			DataDir:    viper.GetString("store.data_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
	}

	switch cfg.AI.Provider {
	case types.ProviderGemini:
		cfg.AI.APIKey = secretDefault("gemini-api-key", viper.GetString("ai.api_key"))
	default:
		cfg.AI.APIKey = secretDefault("anthropic-api-key", viper.GetString("ai.api_key"))
	}

	return cfg
}

// buildSources constructs the platform adapters. A nil launcher disables
// scrape stages everywhere.
func buildSources(cfg types.SourceConfig) []source.Source {
	var launcher browser.Launcher
	if cfg.EnableScraping {
		launcher = &browser.Chrome{Timeout: cfg.Timeout}
	}
	return []source.Source{
		source.NewGitHub(cfg, launcher, log),
		source.NewTwitter(cfg, launcher, log),
		source.NewLinkedIn(cfg, launcher, log),
	}
}

// buildEnricher constructs the AI enrichment stage. An empty API key
// yields an enricher with no backend, which scores heuristically.
func buildEnricher(ctx context.Context, cfg types.AIConfig) (*enrich.Enricher, error) {
	var backend enrich.Backend
	if cfg.APIKey != "" {
		switch cfg.Provider {
		case types.ProviderGemini:
			b, err := enrich.NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
			if err != nil {
				return nil, fmt.Errorf("building gemini backend: %w", err)
			}
			backend = b
		case types.ProviderClaude, "":
			backend = &enrich.ClaudeBackend{
				APIKey: cfg.APIKey,
				Model:  cfg.Model,
				Client: &http.Client{Timeout: 60 * time.Second},
			}
		default:
			return nil, fmt.Errorf("unknown AI provider %q: use claude or gemini", cfg.Provider)
		}
	}
	return enrich.New(backend, cfg.MaxRetries, log), nil
}

// buildPipeline wires the full pipeline from configuration. The returned
// store is non-nil when it opened successfully and must be closed by the
// caller.
func buildPipeline(ctx context.Context, cfg types.PipelineConfig) (*leads.Pipeline, *store.Store, error) {
	enricher, err := buildEnricher(ctx, cfg.AI)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening profile store: %w", err)
	}

	deps := leads.Deps{
		Sources:  buildSources(cfg.Sources),
		Enricher: enricher,
		Store:    st,
		Logger:   log,
	}
	if cfg.Embedding.APIKey != "" {
		deps.Embedder = &embed.OpenAIClient{
			APIKey: cfg.Embedding.APIKey,
			Model:  cfg.Embedding.Model,
		}
	}

	return leads.New(cfg, deps), st, nil
}
