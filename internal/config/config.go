package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gafi-insights/internal/models"
)

const (
	// EnvAPIKey overrides provider.api_key so secrets can stay out of
	// configuration files.
	EnvAPIKey = "GAFI_PROVIDER_API_KEY"

	defaultDegradedMarker = "model capacity"
	defaultTimeoutSeconds = 45
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Provider   ProviderConfig    `yaml:"provider"`
	Candidates []CandidateConfig `yaml:"candidates"`
	Insights   InsightsConfig    `yaml:"insights"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ProviderConfig captures authentication and endpoint info for the
// hosted completion provider.
type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	DegradedMarker string `yaml:"degraded_marker"`
	TimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// Timeout returns the per-attempt request timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CandidateConfig describes one model in the fallback chain.
type CandidateConfig struct {
	ID        string `yaml:"id"`
	Rank      int    `yaml:"rank"`
	Reasoning bool   `yaml:"reasoning"`
}

// InsightsConfig tunes the completion request built per synthesis call.
type InsightsConfig struct {
	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
	MaxTokens        int     `yaml:"max_tokens"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	PresencePenalty  float64 `yaml:"presence_penalty"`
}

// Load reads YAML configuration from disk, applies defaults and the API
// key environment override, and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Provider.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.DegradedMarker == "" {
		c.Provider.DegradedMarker = defaultDegradedMarker
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Insights.Temperature == 0 {
		c.Insights.Temperature = 0.7
	}
	if c.Insights.TopP == 0 {
		c.Insights.TopP = 0.9
	}
	if c.Insights.MaxTokens == 0 {
		c.Insights.MaxTokens = 1024
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return fmt.Errorf("provider.base_url must be provided")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key must be provided (or set %s)", EnvAPIKey)
	}
	if c.Provider.TimeoutSeconds < 0 {
		return fmt.Errorf("provider.request_timeout_seconds must not be negative")
	}

	if len(c.Candidates) == 0 {
		return fmt.Errorf("at least one candidate model must be configured")
	}
	seenIDs := make(map[string]struct{}, len(c.Candidates))
	seenRanks := make(map[int]struct{}, len(c.Candidates))
	for _, candidate := range c.Candidates {
		if strings.TrimSpace(candidate.ID) == "" {
			return fmt.Errorf("candidate id must not be empty")
		}
		if candidate.Rank <= 0 {
			return fmt.Errorf("candidate %s: rank must be positive, got %d", candidate.ID, candidate.Rank)
		}
		if _, dup := seenIDs[candidate.ID]; dup {
			return fmt.Errorf("candidate %s configured twice", candidate.ID)
		}
		if _, dup := seenRanks[candidate.Rank]; dup {
			return fmt.Errorf("candidate %s: rank %d already in use", candidate.ID, candidate.Rank)
		}
		seenIDs[candidate.ID] = struct{}{}
		seenRanks[candidate.Rank] = struct{}{}
	}

	if c.Insights.Temperature < 0 || c.Insights.Temperature > 2 {
		return fmt.Errorf("insights.temperature must be within [0, 2], got %v", c.Insights.Temperature)
	}
	if c.Insights.TopP < 0 || c.Insights.TopP > 1 {
		return fmt.Errorf("insights.top_p must be within [0, 1], got %v", c.Insights.TopP)
	}
	if c.Insights.MaxTokens <= 0 {
		return fmt.Errorf("insights.max_tokens must be positive, got %d", c.Insights.MaxTokens)
	}

	return nil
}

// CandidateModels returns the configured candidates sorted by priority
// rank, ready to hand to the dispatcher.
func (c Config) CandidateModels() []models.CandidateModel {
	out := make([]models.CandidateModel, 0, len(c.Candidates))
	for _, candidate := range c.Candidates {
		out = append(out, models.CandidateModel{
			ID:        candidate.ID,
			Rank:      candidate.Rank,
			Reasoning: candidate.Reasoning,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
