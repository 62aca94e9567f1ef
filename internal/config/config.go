// Copyright (c) 2026 Rise Labs
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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnrichmentConfig holds the endpoints and OAuth2 credentials of the
// embedding and insight services.
type EnrichmentConfig struct {
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	EmbeddingURL   string `yaml:"embedding_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	InsightURL     string `yaml:"insight_url"`
	InsightModel   string `yaml:"insight_model"`
}

// QueueConfig names the Redis lists carrying upstream records.
type QueueConfig struct {
	ContactChanges string `yaml:"contact_changes"`
	Interactions   string `yaml:"interactions"`
	ListingEvents  string `yaml:"listing_events"`
}

// Config holds all configuration for the scout service.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Queues      QueueConfig
	WeightsPath string
	Enrichment  EnrichmentConfig

	// Background cycles
	DecayInterval       time.Duration
	CardRefreshInterval time.Duration

	// Consumer
	Shards int

	// Server (health + metrics)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string      `yaml:"url"`
		Queues QueueConfig `yaml:"queues"`
	} `yaml:"redis"`
	Scoring struct {
		WeightsPath string `yaml:"weights_path"`
	} `yaml:"scoring"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		DatabaseURL:         firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "")),
		RedisURL:            firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		WeightsPath:         firstNonEmpty(raw.Scoring.WeightsPath, envOrDefault("WEIGHTS_PATH", "/app/config/weights.yaml")),
		Enrichment:          raw.Enrichment,
		DecayInterval:       envOrDefaultDuration("DECAY_INTERVAL", 24*time.Hour),
		CardRefreshInterval: envOrDefaultDuration("CARD_REFRESH_INTERVAL", time.Minute),
		Shards:              envOrDefaultInt("CONSUMER_SHARDS", 8),
		Port:                envOrDefaultInt("PORT", 8080),
	}

	cfg.Queues = raw.Redis.Queues
	if cfg.Queues.ContactChanges == "" {
		cfg.Queues.ContactChanges = "contact_changes"
	}
	if cfg.Queues.Interactions == "" {
		cfg.Queues.Interactions = "contact_interactions"
	}
	if cfg.Queues.ListingEvents == "" {
		cfg.Queues.ListingEvents = "listing_events"
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required — set database.url in config.yaml or DATABASE_URL")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
