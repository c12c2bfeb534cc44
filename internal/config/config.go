// Package config loads the pipeline's configuration from defaults, an
// optional YAML file, and environment variables, in that order of
// increasing precedence — the same layering the teacher's
// internal/config package used, remapped to this pipeline's concerns.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

var (
	ErrConfigNotFound = errors.New("config: file not found")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)

// EmbeddingConfig selects and parameterizes the embedding backend.
type EmbeddingConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=local hosted"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
}

// RerankerConfig parameterizes the cross-encoder client.
type RerankerConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ConvertConfig parameterizes the external Markdown-conversion service the
// chunk subcommand calls when given a non-Markdown input path.
type ConvertConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// VectorStoreConfig is the Postgres/pgvector connection and collection
// defaults.
type VectorStoreConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	Collection string `mapstructure:"collection"`
}

// ChunkingConfig controls the token budget used when packing blocks.
type ChunkingConfig struct {
	ChunkSizeTokens int `mapstructure:"chunk_size_tokens"`
}

// ArtifactStoreConfig is the optional MinIO/S3 NDJSON artifact mirror.
type ArtifactStoreConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// QueryCacheConfig is the optional Redis-backed search-result cache.
type QueryCacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config is the root configuration object.
type Config struct {
	Chunking    ChunkingConfig      `mapstructure:"chunking"`
	Embedding   EmbeddingConfig     `mapstructure:"embedding"`
	Reranker    RerankerConfig      `mapstructure:"reranker"`
	Convert     ConvertConfig       `mapstructure:"convert"`
	VectorStore VectorStoreConfig   `mapstructure:"vectorstore"`
	Artifacts   ArtifactStoreConfig `mapstructure:"artifacts"`
	QueryCache  QueryCacheConfig    `mapstructure:"query_cache"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chunking.chunk_size_tokens", 200)

	v.SetDefault("embedding.backend", "hosted")
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.model", "text-embedding-3-large")

	v.SetDefault("reranker.batch_size", 32)
	v.SetDefault("reranker.model", "cross-encoder/ms-marco-MiniLM-L-6-v2")

	v.SetDefault("vectorstore.port", 5432)
	v.SetDefault("vectorstore.collection", "rag_chunks")

	v.SetDefault("artifacts.enabled", false)
	v.SetDefault("artifacts.use_ssl", false)

	v.SetDefault("query_cache.enabled", false)
}

// bindEnv wires the four spec-mandated environment variables plus the
// additive ones for Markdown conversion, artifact storage and query caching.
func bindEnv(v *viper.Viper) error {
	binds := map[string]string{
		"embedding.base_url":          "EMBED_BACKEND_URL",
		"embedding.api_key":           "EMBED_API_KEY",
		"vectorstore.host":            "VECTORSTORE_HOST",
		"reranker.model":              "CROSS_ENCODER_MODEL",
		"convert.base_url":            "CONVERT_BACKEND_URL",
		"convert.api_key":             "CONVERT_API_KEY",
		"artifacts.endpoint":          "ARTIFACT_BUCKET_ENDPOINT",
		"artifacts.access_key_id":     "ARTIFACT_BUCKET_ACCESS_KEY_ID",
		"artifacts.secret_access_key": "ARTIFACT_BUCKET_SECRET_ACCESS_KEY",
		"artifacts.bucket":            "ARTIFACT_BUCKET_NAME",
		"query_cache.addr":            "QUERY_CACHE_ADDR",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate enforces the invariants a loaded config must satisfy before
// any stage uses it.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSizeTokens <= 0 {
		return fmt.Errorf("%w: chunking.chunk_size_tokens must be positive", ErrInvalidConfig)
	}
	if c.Embedding.Backend != "local" && c.Embedding.Backend != "hosted" {
		return fmt.Errorf("%w: embedding.backend must be local or hosted", ErrInvalidConfig)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Reranker.BatchSize <= 0 {
		return fmt.Errorf("%w: reranker.batch_size must be positive", ErrInvalidConfig)
	}
	if c.VectorStore.Collection == "" {
		return fmt.Errorf("%w: vectorstore.collection must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Load reads defaults, an optional YAML file at configPath (if non-empty
// and present), and environment variables, in that precedence order.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		// No config file is fine: defaults + env still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads the config and panics on error, for CLI entrypoints
// where a misconfigured process should not start at all.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}
