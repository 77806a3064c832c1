// Package processor turns raw uploaded bytes into normalized text chunks and
// embedded images. It has no knowledge of embeddings or sessions and never
// writes to persistent storage.
package processor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
)

const (
	defaultChunkSize    = 800 // characters
	defaultChunkOverlap = 100 // characters
)

var pdfSignature = []byte("%PDF")

// PageImage is a raster image extracted from a PDF page, re-encoded as PNG.
type PageImage struct {
	Data []byte
	Page int
}

type Processor struct {
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Processor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ProcessPDF extracts text chunks and embedded raster images from a PDF held
// entirely in memory. Per-page text extraction failures and per-image
// extraction failures are tolerated; structural failures are not.
func (p *Processor) ProcessPDF(data []byte) (chunks []models.Chunk, images []PageImage, err error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: file is empty", models.ErrInvalidDocument)
	}
	if !bytes.HasPrefix(data, pdfSignature) {
		return nil, nil, fmt.Errorf("%w: missing %%PDF header", models.ErrInvalidDocument)
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			chunks, images = nil, nil
			err = fmt.Errorf("%w: %v", models.ErrCorruptDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if err == pdf.ErrInvalidPassword || strings.Contains(strings.ToLower(err.Error()), "encrypted") {
			return nil, nil, fmt.Errorf("%w: password-protected PDF", models.ErrEncryptedDocument)
		}
		return nil, nil, fmt.Errorf("%w: %v", models.ErrCorruptDocument, err)
	}

	chunkIndex := 0
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, textErr := page.GetPlainText(nil)
		if textErr != nil {
			log.Warn().Err(textErr).Int("page", i).Msg("failed to extract page text")
		} else if strings.TrimSpace(text) != "" {
			chunks = append(chunks, p.chunkPage(text, i, &chunkIndex)...)
		}

		images = append(images, extractPageImages(page, i)...)
	}

	log.Info().
		Int("pages", numPages).
		Int("text_chunks", len(chunks)).
		Int("images", len(images)).
		Msg("processed PDF")

	return chunks, images, nil
}
