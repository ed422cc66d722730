// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

const (
	// DefaultTemperature is the sampling temperature used for classification and scoring.
	DefaultTemperature = 0.3

	// DefaultMaxTokens caps the length of classifier and scorer responses.
	DefaultMaxTokens = 256
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ClassifierHost is the base URL for the message classification API.
	// Example: "https://openrouter.ai/api/v1"
	ClassifierHost string

	// ScorerHost is the base URL for the media opinion scoring API.
	// It is configured separately so scoring can run on a different provider.
	ScorerHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// ClassifierModel is the model identifier used to classify messages.
	// Example: "mistralai/devstral-2512:free", "qwen2.5:3b"
	ClassifierModel string

	// ScorerModel is the model identifier used to score media opinions.
	// Example: "mistralai/mistral-7b-instruct:free"
	ScorerModel string

	// APIKey is sent as a bearer token to every host.
	// Local servers ignore it; OpenRouter requires it.
	APIKey string

	// Temperature is the sampling temperature for chat completions.
	// Default: 0.3
	Temperature float64

	// MaxTokens caps the completion length for chat completions.
	// Default: 256
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithClassifierHost sets the classifier service host URL.
func WithClassifierHost(host string) ConfigOption {
	return func(c *Config) {
		c.ClassifierHost = host
	}
}

// WithScorerHost sets the opinion scorer service host URL.
func WithScorerHost(host string) ConfigOption {
	return func(c *Config) {
		c.ScorerHost = host
	}
}

// WithHost points the embedding, classifier and scorer at the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ClassifierHost = host
		c.ScorerHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithClassifierModel sets the classifier model identifier.
func WithClassifierModel(model string) ConfigOption {
	return func(c *Config) {
		c.ClassifierModel = model
	}
}

// WithScorerModel sets the opinion scorer model identifier.
func WithScorerModel(model string) ConfigOption {
	return func(c *Config) {
		c.ScorerModel = model
	}
}

// WithAPIKey sets the bearer token sent to the model hosts.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature for chat completions.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the completion length cap for chat completions.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, every service uses the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		ClassifierHost:  defaultHost,
		ScorerHost:      defaultHost,
		EmbeddingModel:  "embeddinggemma",
		ClassifierModel: "qwen2.5:3b",
		ScorerModel:     "mistral:7b-instruct",
		APIKey:          "none",
		Temperature:     DefaultTemperature,
		MaxTokens:       DefaultMaxTokens,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://openrouter.ai/api/v1"),
//	    WithAPIKey(os.Getenv("OPENROUTER_API_KEY")),
//	    WithClassifierModel("mistralai/devstral-2512:free"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, OpenRouter, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ClassifierHost = normalizeHost(c.ClassifierHost)
	c.ScorerHost = normalizeHost(c.ScorerHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	// Remove trailing slash if present before adding /v1
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ClassifierHost == "" {
		return errors.New("ai config: ClassifierHost is required")
	}
	if c.ScorerHost == "" {
		return errors.New("ai config: ScorerHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ClassifierModel == "" {
		return errors.New("ai config: ClassifierModel is required")
	}
	if c.ScorerModel == "" {
		return errors.New("ai config: ScorerModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}

// ClassifierSettings returns the chat settings for the message classifier.
// Classification responses are requested in JSON mode.
func (c *Config) ClassifierSettings() ModelSettings {
	return ModelSettings{
		Host:        c.ClassifierHost,
		Model:       c.ClassifierModel,
		APIKey:      c.APIKey,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		JSONMode:    true,
	}
}

// ScorerSettings returns the chat settings for the media opinion scorer.
func (c *Config) ScorerSettings() ModelSettings {
	return ModelSettings{
		Host:        c.ScorerHost,
		Model:       c.ScorerModel,
		APIKey:      c.APIKey,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}
