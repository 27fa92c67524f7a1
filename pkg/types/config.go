// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the hard per-request timeout (default 30s). A stuck call
	// is treated as a soft failure for that stage, not a pipeline abort.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every outbound request (e.g. "lead-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig holds settings for the acquisition stage.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// GitHubToken authorizes the GitHub search API stage. Optional;
	// unauthenticated requests run under a much smaller quota.
	GitHubToken string `json:"github_token,omitempty" yaml:"github_token,omitempty" mapstructure:"github_token"`

	// TwitterBearerToken authorizes the Twitter API stage.
	TwitterBearerToken string `json:"twitter_bearer_token,omitempty" yaml:"twitter_bearer_token,omitempty" mapstructure:"twitter_bearer_token"`

	// EnableScraping controls whether browser-based scrape stages run
	// ahead of the official API stages.
	EnableScraping bool `json:"enable_scraping" yaml:"enable_scraping" mapstructure:"enable_scraping"`

	// InterPlatformDelay spaces out consecutive platform fetches to
	// respect third-party quotas (default 0).
	InterPlatformDelay time.Duration `json:"inter_platform_delay" yaml:"inter_platform_delay" mapstructure:"inter_platform_delay"`
}

// AIProvider selects the chat-completion backend for enrichment.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderGemini AIProvider = "gemini"
)

// AIConfig holds settings for the enrichment stage.
type AIConfig struct {
	// Provider selects the backend: claude or gemini. Empty disables the
	// AI call and uses the deterministic heuristic directly.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier for the selected provider.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts before the heuristic
	// fallback takes over (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding service.
type EmbeddingConfig struct {
	// APIKey authenticates against the embedding API. Empty disables
	// embeddings; the vector component is then omitted from scoring.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is the embedding model (default "text-embedding-3-small").
	Model string `json:"model" yaml:"model" mapstructure:"model"`
}

// StoreConfig holds settings for the profile store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxResults is the default store query limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	// DefaultLimit is the lead count when the caller gives none (default 10).
	DefaultLimit int `json:"default_limit" yaml:"default_limit" mapstructure:"default_limit"`

	// EnrichWorkers bounds concurrent per-profile enrichment calls (default 4).
	EnrichWorkers int `json:"enrich_workers" yaml:"enrich_workers" mapstructure:"enrich_workers"`

	Sources   SourceConfig    `json:"sources" yaml:"sources" mapstructure:"sources"`
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
}
