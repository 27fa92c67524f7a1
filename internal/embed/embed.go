// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed obtains fixed-length vector representations of text from
// an external embedding service.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Dimensions is the embedding width. ZeroVector returns this many zeros;
// it is the documented fallback when the service is unavailable and
// yields exactly 0 cosine similarity instead of a crash.
const Dimensions = 1536

const defaultModel = "text-embedding-3-small"

// openaiEmbeddingsURL is the embeddings endpoint. Declared as a var so
// tests can substitute an httptest server.
var openaiEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// Client produces embeddings for text.
type Client interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIClient calls the OpenAI embeddings API.
type OpenAIClient struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is not configured")
	}

	model := c.Model
	if model == "" {
		model = defaultModel
	}

	body, err := json.Marshal(embeddingsRequest{Model: model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEmbeddingsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(b))
	}

	var er embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings API returned no vector")
	}

	return er.Data[0].Embedding, nil
}

// ZeroVector returns the embedding-failure fallback vector.
func ZeroVector() []float64 {
	return make([]float64, Dimensions)
}
