package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/helper"
	"tutor-rag/internal/llmservice"
	"tutor-rag/internal/models"
	"tutor-rag/internal/session"
)

const excerptLength = 200

// Query answers a question against a session. Image sessions go straight to
// the vision model; text sessions retrieve the top-k chunks first. Either way
// the model classifies the question and a sentinel reply turns into a
// fallback signal for the caller's general-purpose responder.
func (r *RAG) Query(ctx context.Context, sessionID, query string, topK int) (*models.QueryResult, error) {
	var result *models.QueryResult
	err := r.withTimeout(ctx, r.cfg.QueryTimeout(), "query", func(ctx context.Context) error {
		sess, err := r.store.Get(sessionID)
		if err != nil {
			return err
		}
		log.Info().Str("session_id", sessionID).Str("query", helper.Truncate(query, 50)).Msg("querying session")

		if sess.RawImage != nil {
			result, err = r.queryImage(ctx, sess, query)
		} else {
			result, err = r.queryDocument(ctx, sess, query, topK)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RAG) queryImage(ctx context.Context, sess *session.Context, query string) (*models.QueryResult, error) {
	prompt := fmt.Sprintf(models.ImageQueryPromptTemplate, query)
	reply, err := r.generator.GenerateFromImage(ctx, prompt, sess.RawImage, "image/png")
	if err != nil {
		return nil, backendErr(err, "vision query")
	}

	if containsSentinel(reply) {
		log.Info().Str("session_id", sess.ID).Msg("vision model classified query as general, signaling fallback")
		return fallbackResult(), nil
	}

	return &models.QueryResult{
		Reply: &reply,
		Citations: []models.Citation{{
			Page:    1,
			Excerpt: "[Image content analyzed using vision model]",
			Kind:    "image_vision",
		}},
		Metadata: models.QueryMetadata{
			ChunksRetrieved: 1,
			Model:           r.generator.Model(),
			QueryType:       "vision",
		},
	}, nil
}

func (r *RAG) queryDocument(ctx context.Context, sess *session.Context, query string, topK int) (*models.QueryResult, error) {
	if topK <= 0 {
		topK = r.cfg.RAG.TopK
	}

	queryVector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, backendErr(err, "embedding query")
	}

	results := sess.Index.Search(queryVector, topK)
	if len(results) == 0 {
		reply := models.NoRelevantInfoReply
		return &models.QueryResult{
			Reply:     &reply,
			Citations: []models.Citation{},
			Metadata:  models.QueryMetadata{ChunksRetrieved: 0},
		}, nil
	}

	contextParts := make([]string, 0, len(results))
	citations := make([]models.Citation, 0, len(results))
	for _, hit := range results {
		contextParts = append(contextParts, fmt.Sprintf("[Page %d] %s", hit.Record.Page, hit.Record.Text))
		citations = append(citations, models.Citation{
			Page:    hit.Record.Page,
			Excerpt: helper.Truncate(hit.Record.Text, excerptLength),
			Kind:    string(hit.Record.Kind),
		})
	}

	prompt := fmt.Sprintf(models.DocumentQueryPromptTemplate, strings.Join(contextParts, "\n\n"), query)
	reply, err := r.generateStreamed(ctx, prompt)
	if err != nil {
		return nil, backendErr(err, "answer generation")
	}

	if containsSentinel(reply) {
		log.Info().Str("session_id", sess.ID).Msg("model classified query as general, signaling fallback")
		return fallbackResult(), nil
	}

	return &models.QueryResult{
		Reply:     &reply,
		Citations: citations,
		Metadata: models.QueryMetadata{
			ChunksRetrieved: len(results),
			Model:           r.generator.Model(),
		},
	}, nil
}

// generateStreamed collects a streaming generation into a full reply while
// enforcing the deadline across the whole stream, not just the first token.
func (r *RAG) generateStreamed(ctx context.Context, prompt string) (string, error) {
	stream, err := r.generator.GenerateTextStream(ctx, prompt)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				return llmservice.CleanResponse(b.String()), nil
			}
			if chunk.Err != nil {
				return "", chunk.Err
			}
			b.WriteString(chunk.Text)
		}
	}
}

func fallbackResult() *models.QueryResult {
	return &models.QueryResult{
		Reply:     nil,
		Citations: []models.Citation{},
		Metadata:  models.QueryMetadata{FallbackToGeneral: true},
	}
}
