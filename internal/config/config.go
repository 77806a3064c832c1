package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes one model endpoint. Provider selects the client
// implementation ("openai" covers any OpenAI-compatible server).
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RAGConfig tunes chunking, retrieval and session lifecycle.
type RAGConfig struct {
	ChunkSize            int `yaml:"chunk_size"`
	ChunkOverlap         int `yaml:"chunk_overlap"`
	TopK                 int `yaml:"top_k"`
	EmbeddingDimension   int `yaml:"embedding_dimension"`
	SessionTTLMinutes    int `yaml:"session_ttl_minutes"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	UploadTimeoutSeconds int `yaml:"upload_timeout_seconds"`
	QueryTimeoutSeconds  int `yaml:"query_timeout_seconds"`
	MaxConcurrentCalls   int `yaml:"max_concurrent_calls"`
	MaxImageWorkers      int `yaml:"max_image_workers"`
}

type Config struct {
	EmbedLLM LLMConfig `yaml:"embed_llm"`
	GenLLM   LLMConfig `yaml:"gen_llm"`
	RAG      RAGConfig `yaml:"rag"`
	LogLevel string    `yaml:"log_level"`
}

// LoadConfig reads the yaml config at path. A missing file yields defaults so
// the module is usable with env-provided keys alone.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.GenLLM.Provider == "" {
		cfg.GenLLM.Provider = "openai"
	}
	if cfg.GenLLM.BaseURL == "" {
		cfg.GenLLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.GenLLM.Model == "" {
		cfg.GenLLM.Model = "google/gemini-2.0-flash-001"
	}
	if cfg.GenLLM.Key == "" {
		cfg.GenLLM.Key = os.Getenv("OPENROUTER_KEY")
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 800
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.EmbeddingDimension == 0 {
		cfg.RAG.EmbeddingDimension = 768
	}
	if cfg.RAG.SessionTTLMinutes == 0 {
		cfg.RAG.SessionTTLMinutes = 20
	}
	if cfg.RAG.SweepIntervalSeconds == 0 {
		cfg.RAG.SweepIntervalSeconds = 60
	}
	if cfg.RAG.UploadTimeoutSeconds == 0 {
		cfg.RAG.UploadTimeoutSeconds = 30
	}
	if cfg.RAG.QueryTimeoutSeconds == 0 {
		cfg.RAG.QueryTimeoutSeconds = 15
	}
	if cfg.RAG.MaxConcurrentCalls == 0 {
		cfg.RAG.MaxConcurrentCalls = 8
	}
	if cfg.RAG.MaxImageWorkers == 0 {
		cfg.RAG.MaxImageWorkers = 4
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// SessionTTL returns the configured default session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.RAG.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often expired sessions are swept.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RAG.SweepIntervalSeconds) * time.Second
}

// UploadTimeout bounds PDF and image ingestion.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.RAG.UploadTimeoutSeconds) * time.Second
}

// QueryTimeout bounds a single session query.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.RAG.QueryTimeoutSeconds) * time.Second
}
