// Package llmservice wraps the generation backend (text and vision variants).
// A process-wide semaphore bounds in-flight calls to protect the rate-limited
// provider; callers beyond the bound wait rather than being rejected.
package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"

	"tutor-rag/internal/config"
)

// StreamChunk is one increment of a streaming generation. A non-nil Err ends
// the stream.
type StreamChunk struct {
	Text string
	Err  error
}

const streamBuffer = 16

type Client struct {
	llm   llms.Model
	model string
	sem   *semaphore.Weighted
}

func NewClient(cfg *config.LLMConfig, maxConcurrent int) (*Client, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	llm, err := newModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing generation LLM: %w", err)
	}
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Int("max_concurrent", maxConcurrent).
		Msg("generation client ready")

	return &Client{
		llm:   llm,
		model: cfg.Model,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

func newModel(cfg *config.LLMConfig) (llms.Model, error) {
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
	)
}

// Model reports the configured model name for response metadata.
func (c *Client) Model() string {
	return c.model
}

// GenerateText runs one blocking text generation under the semaphore.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	return c.generate(ctx, []llms.MessageContent{textMessage(prompt)})
}

// GenerateFromImage sends the prompt together with raw image bytes to a
// vision-capable model.
func (c *Client) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	msg := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(mimeType, image),
			llms.TextPart(prompt),
		},
	}
	return c.generate(ctx, []llms.MessageContent{msg})
}

// GenerateTextStream starts a generation whose increments arrive on the
// returned channel. The producer goroutine honors ctx cancellation mid-stream
// and closes the channel when the generation completes, fails, or is
// cancelled; resources are released either way.
func (c *Client) GenerateTextStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, streamBuffer)
	go func() {
		defer c.sem.Release(1)
		defer close(ch)

		_, err := c.llm.GenerateContent(ctx, []llms.MessageContent{textMessage(prompt)},
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case ch <- StreamChunk{Text: string(chunk)}:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		if err != nil {
			select {
			case ch <- StreamChunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func (c *Client) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return CleanResponse(resp.Choices[0].Content), nil
}

func textMessage(prompt string) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	}
}

// CleanResponse normalizes line endings and collapses runs of blank lines
// while preserving markdown.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
