// Package config provides configuration loading for the graphsim pipeline
// stage: encoder, filter, index backend, retrieval, and artifact settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for one pipeline stage.
type Config struct {
	Encoder  EncoderConfig  `yaml:"encoder"`
	Filter   FilterConfig   `yaml:"filter"`
	Index    IndexConfig    `yaml:"index"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
	Artifact ArtifactConfig `yaml:"artifact"`
}

// EncoderConfig selects and tunes the embedding backend.
type EncoderConfig struct {
	// Backend is "openai" or "onnx".
	Backend string `yaml:"backend"`

	// Model names the embedding model (openai backend).
	Model string `yaml:"model"`

	// ModelPath points at the .onnx file (onnx backend).
	ModelPath string `yaml:"model_path"`

	// Dimension overrides the model dimension table when the model is not
	// a known one.
	Dimension int `yaml:"dimension"`

	// MaxTokens is the fixed sequence length (onnx backend).
	MaxTokens int `yaml:"max_tokens"`

	// Normalize requests unit-norm encoder output.
	Normalize bool `yaml:"normalize"`

	// RequestsPerSecond shapes outbound request rate (openai backend).
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// TokenBudget caps tokens per embeddings request (openai backend).
	TokenBudget int `yaml:"token_budget"`
}

// FilterConfig holds the similarity decision parameters.
type FilterConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float32 `yaml:"threshold"`
}

// IndexConfig selects and tunes the index backend.
type IndexConfig struct {
	// Backend is "flat" or "hnsw".
	Backend string `yaml:"backend"`

	// HNSW tunables; ignored by the flat backend.
	M              int `yaml:"m"`
	EFConstruction int `yaml:"ef_construction"`
	EFSearch       int `yaml:"ef_search"`
}

// Neo4jConfig holds the knowledge store connection.
type Neo4jConfig struct {
	URI             string `yaml:"uri"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	LimitPerPattern int    `yaml:"limit_per_pattern"`
}

// ArtifactConfig holds run report persistence settings.
type ArtifactConfig struct {
	// Store is "memory", "local", "s3", or "minio".
	Store string `yaml:"store"`

	// Root is the local directory (local store).
	Root string `yaml:"root"`

	// Bucket and Prefix locate reports in object storage.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// Compression is "none", "lz4", or "zstd".
	Compression string `yaml:"compression"`

	// RegistryTable is the DynamoDB table for the run registry (s3 store);
	// empty disables the registry.
	RegistryTable string `yaml:"registry_table"`
}

// Default returns the configuration used when a field is unset.
func Default() Config {
	return Config{
		Encoder: EncoderConfig{
			Backend:           "openai",
			Model:             "text-embedding-3-small",
			MaxTokens:         256,
			RequestsPerSecond: 0,
			TokenBudget:       100_000,
		},
		Filter: FilterConfig{
			TopK:      5,
			Threshold: 0.50,
		},
		Index: IndexConfig{
			Backend:        "flat",
			M:              16,
			EFConstruction: 200,
			EFSearch:       100,
		},
		Neo4j: Neo4jConfig{
			URI:             "bolt://localhost:7687",
			LimitPerPattern: 50,
		},
		Artifact: ArtifactConfig{
			Store:       "local",
			Root:        "logs",
			Prefix:      "similarity",
			Compression: "none",
		},
	}
}

// Load reads and parses the config file at path, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills zero values that yaml may have cleared (e.g. an
// explicit empty section).
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Encoder.Backend == "" {
		cfg.Encoder.Backend = def.Encoder.Backend
	}
	if cfg.Encoder.TokenBudget == 0 {
		cfg.Encoder.TokenBudget = def.Encoder.TokenBudget
	}
	if cfg.Encoder.MaxTokens == 0 {
		cfg.Encoder.MaxTokens = def.Encoder.MaxTokens
	}
	if cfg.Filter.TopK == 0 {
		cfg.Filter.TopK = def.Filter.TopK
	}
	if cfg.Filter.Threshold == 0 {
		cfg.Filter.Threshold = def.Filter.Threshold
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = def.Index.Backend
	}
	if cfg.Index.M == 0 {
		cfg.Index.M = def.Index.M
	}
	if cfg.Index.EFConstruction == 0 {
		cfg.Index.EFConstruction = def.Index.EFConstruction
	}
	if cfg.Index.EFSearch == 0 {
		cfg.Index.EFSearch = def.Index.EFSearch
	}
	if cfg.Neo4j.LimitPerPattern == 0 {
		cfg.Neo4j.LimitPerPattern = def.Neo4j.LimitPerPattern
	}
	if cfg.Artifact.Store == "" {
		cfg.Artifact.Store = def.Artifact.Store
	}
	if cfg.Artifact.Compression == "" {
		cfg.Artifact.Compression = def.Artifact.Compression
	}
}

// Validate rejects configurations that would fail later in surprising ways.
func (c *Config) Validate() error {
	switch c.Encoder.Backend {
	case "openai":
		if c.Encoder.Model == "" {
			return fmt.Errorf("encoder: model is required for the openai backend")
		}
	case "onnx":
		if c.Encoder.ModelPath == "" {
			return fmt.Errorf("encoder: model_path is required for the onnx backend")
		}
		if c.Encoder.Dimension <= 0 {
			return fmt.Errorf("encoder: dimension must be positive for the onnx backend")
		}
	default:
		return fmt.Errorf("encoder: unknown backend %q", c.Encoder.Backend)
	}

	if c.Filter.TopK < 0 {
		return fmt.Errorf("filter: top_k must not be negative")
	}

	switch c.Index.Backend {
	case "flat", "hnsw":
	default:
		return fmt.Errorf("index: unknown backend %q", c.Index.Backend)
	}

	switch c.Artifact.Store {
	case "memory", "local":
	case "s3", "minio":
		if c.Artifact.Bucket == "" {
			return fmt.Errorf("artifact: bucket is required for the %s store", c.Artifact.Store)
		}
	default:
		return fmt.Errorf("artifact: unknown store %q", c.Artifact.Store)
	}

	switch c.Artifact.Compression {
	case "none", "lz4", "zstd":
	default:
		return fmt.Errorf("artifact: unknown compression %q", c.Artifact.Compression)
	}

	return nil
}
