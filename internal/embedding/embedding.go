// Package embedding maps text to fixed-dimension vectors through a
// langchaingo embedder. The service is stateless per call and safe for
// concurrent use across sessions.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"tutor-rag/internal/config"
	"tutor-rag/internal/models"
)

type Service struct {
	embedder  *embeddings.EmbedderImpl
	model     string
	dimension int
}

// NewService builds an embedder for the configured provider. "ollama" talks to
// a local Ollama server; anything else is treated as an OpenAI-compatible API.
func NewService(cfg *config.LLMConfig, dimension int) (*Service, error) {
	client, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding LLM: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Int("dimension", dimension).
		Msg("embedding service ready")

	return &Service{embedder: embedder, model: cfg.Model, dimension: dimension}, nil
}

func newEmbedderClient(cfg *config.LLMConfig) (embeddings.EmbedderClient, error) {
	if cfg.Provider == "ollama" {
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	}
	return openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	)
}

// Embed generates vectors for a batch of texts. Empty batches and blank texts
// are contract errors, not backend failures.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", models.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is blank", models.ErrEmptyInput, i)
		}
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	log.Debug().Int("texts", len(texts)).Msg("generated embeddings")
	return vectors, nil
}

// EmbedOne is a convenience wrapper around a single-element batch.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension is the declared vector length, fixed for the process lifetime.
func (s *Service) Dimension() int {
	return s.dimension
}
