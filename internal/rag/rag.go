// Package rag orchestrates the retrieval pipeline: document ingestion,
// embedding, vector search, relevance classification and answer generation
// against ephemeral sessions.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tutor-rag/internal/config"
	"tutor-rag/internal/llmservice"
	"tutor-rag/internal/models"
	"tutor-rag/internal/processor"
	"tutor-rag/internal/session"
	"tutor-rag/internal/vectorindex"
)

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Generator is the generation backend, an opaque network dependency. All
// timeout and cancellation discipline is applied on top of it here.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateTextStream(ctx context.Context, prompt string) (<-chan llmservice.StreamChunk, error)
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	Model() string
}

// DocumentProcessor turns raw bytes into chunks and images.
type DocumentProcessor interface {
	ProcessPDF(data []byte) ([]models.Chunk, []processor.PageImage, error)
	ProcessImage(data []byte) ([]byte, processor.ImageInfo, error)
}

type RAG struct {
	cfg       *config.Config
	store     *session.Store
	embedder  Embedder
	generator Generator
	proc      DocumentProcessor
}

func New(cfg *config.Config, store *session.Store, embedder Embedder, generator Generator, proc DocumentProcessor) *RAG {
	return &RAG{cfg: cfg, store: store, embedder: embedder, generator: generator, proc: proc}
}

// ProcessUpload sniffs the content and dispatches to the PDF or image path.
// The declared content type is logged but never trusted for validation.
func (r *RAG) ProcessUpload(ctx context.Context, data []byte, declaredType string) (string, error) {
	kind, err := processor.Sniff(data)
	if err != nil {
		return "", err
	}
	log.Debug().Str("declared_type", declaredType).Str("sniffed", string(kind)).Msg("dispatching upload")

	switch kind {
	case processor.ContentPDF:
		return r.ProcessPDF(ctx, data)
	default:
		return r.ProcessImage(ctx, data)
	}
}

// ProcessPDF ingests a PDF and returns the new session ID.
func (r *RAG) ProcessPDF(ctx context.Context, data []byte) (string, error) {
	var sessionID string
	err := r.withTimeout(ctx, r.cfg.UploadTimeout(), "PDF processing", func(ctx context.Context) error {
		var err error
		sessionID, err = r.processPDF(ctx, data)
		return err
	})
	return sessionID, err
}

func (r *RAG) processPDF(ctx context.Context, data []byte) (string, error) {
	chunks, images, err := r.proc.ProcessPDF(data)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 && len(images) == 0 {
		return "", fmt.Errorf("%w: PDF yielded no text and no images", models.ErrEmptyDocument)
	}

	all := chunks
	if len(images) > 0 {
		log.Info().Int("images", len(images)).Msg("describing PDF images with vision model")
		for _, desc := range r.describeImages(ctx, images) {
			all = append(all, models.Chunk{
				Text:       "[Image Description] " + desc.text,
				Page:       desc.page,
				ChunkIndex: len(all),
				Kind:       models.ChunkKindImageDescription,
			})
		}
	}

	texts := make([]string, len(all))
	for i, c := range all {
		texts[i] = c.Text
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return "", backendErr(err, "embedding chunks")
	}

	index := vectorindex.New(r.embedder.Dimension())
	if err := index.Add(vectors, recordsFor(all)); err != nil {
		return "", err
	}

	sessionID := r.store.Create(index, all, map[string]any{
		"document_type": "pdf",
		"document_id":   uuid.NewString(),
		"text_chunks":   len(chunks),
		"image_chunks":  len(all) - len(chunks),
		"total_chunks":  len(all),
	}, nil, 0)

	log.Info().Str("session_id", sessionID).Int("chunks", len(all)).Msg("PDF ingested")
	return sessionID, nil
}

// ProcessImage ingests a standalone image and returns the new session ID. The
// session keeps the normalized image bytes so later queries can go straight to
// the vision model.
func (r *RAG) ProcessImage(ctx context.Context, data []byte) (string, error) {
	var sessionID string
	err := r.withTimeout(ctx, r.cfg.UploadTimeout(), "image processing", func(ctx context.Context) error {
		var err error
		sessionID, err = r.processImage(ctx, data)
		return err
	})
	return sessionID, err
}

func (r *RAG) processImage(ctx context.Context, data []byte) (string, error) {
	normalized, info, err := r.proc.ProcessImage(data)
	if err != nil {
		return "", err
	}

	description, err := r.generator.GenerateFromImage(ctx, models.ImageDescribePrompt, normalized, "image/png")
	if err != nil {
		return "", backendErr(err, "describing image")
	}

	chunk := models.Chunk{
		Text:       "[Image Content] " + description,
		Page:       1,
		ChunkIndex: 0,
		Kind:       models.ChunkKindImageDescription,
		Metadata: map[string]any{
			"image_format": info.Format,
			"image_width":  info.Width,
			"image_height": info.Height,
		},
	}

	vectors, err := r.embedder.Embed(ctx, []string{chunk.Text})
	if err != nil {
		return "", backendErr(err, "embedding image description")
	}

	index := vectorindex.New(r.embedder.Dimension())
	if err := index.Add(vectors, recordsFor([]models.Chunk{chunk})); err != nil {
		return "", err
	}

	sessionID := r.store.Create(index, []models.Chunk{chunk}, map[string]any{
		"document_type": "image",
		"document_id":   uuid.NewString(),
		"image_format":  info.Format,
		"image_width":   info.Width,
		"image_height":  info.Height,
	}, normalized, 0)

	log.Info().Str("session_id", sessionID).Msg("image ingested")
	return sessionID, nil
}

// DeleteSession removes a session, reporting whether it existed.
func (r *RAG) DeleteSession(id string) bool {
	return r.store.Delete(id)
}

// SessionInfo summarizes a session or returns ErrNotFound.
func (r *RAG) SessionInfo(id string) (*session.Info, error) {
	return r.store.Info(id)
}

type pageDescription struct {
	text string
	page int
}

// describeImages obtains a vision description per image with bounded
// parallelism. A failed description becomes a placeholder referencing the
// page; it never aborts the ingestion.
func (r *RAG) describeImages(ctx context.Context, images []processor.PageImage) []pageDescription {
	descriptions := make([]pageDescription, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.RAG.MaxImageWorkers)
	for i, img := range images {
		g.Go(func() error {
			text, err := r.generator.GenerateFromImage(gctx, models.ImageDescribePrompt, img.Data, "image/png")
			if err != nil {
				log.Warn().Err(err).Int("page", img.Page).Msg("image description failed, using placeholder")
				text = fmt.Sprintf("[Image on page %d - processing failed]", img.Page)
			}
			descriptions[i] = pageDescription{text: text, page: img.Page}
			return nil
		})
	}
	g.Wait() // workers never return errors

	return descriptions
}

func recordsFor(chunks []models.Chunk) []vectorindex.Record {
	records := make([]vectorindex.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorindex.Record{
			Text:       c.Text,
			Page:       c.Page,
			ChunkIndex: c.ChunkIndex,
			Kind:       c.Kind,
		}
	}
	return records
}

// withTimeout runs fn under an operation deadline and maps a tripped deadline
// to ErrTimeout naming the operation and its configured duration.
func (r *RAG) withTimeout(ctx context.Context, d time.Duration, op string, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(tctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Error().Str("operation", op).Dur("timeout", d).Msg("operation timed out")
		return fmt.Errorf("%w: %s exceeded %s", models.ErrTimeout, op, d)
	}
	return err
}

// backendErr classifies a backend failure as ServiceUnavailable. Cancellations
// and contract errors keep their own kind.
func backendErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, models.ErrEmptyInput) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrServiceUnavailable, op, err)
}

func containsSentinel(reply string) bool {
	return strings.Contains(strings.TrimSpace(reply), models.GeneralQuerySentinel)
}
