package processor

import (
	"fmt"

	"github.com/h2non/filetype"

	"tutor-rag/internal/models"
)

// ContentKind is the dispatch decision for an upload.
type ContentKind string

const (
	ContentPDF   ContentKind = "pdf"
	ContentImage ContentKind = "image"
)

// Sniff inspects the magic bytes of an upload and decides whether it should
// take the PDF or the image path. The declared content type is never trusted
// for correctness, only this result is. Supported: PDF, PNG, JPEG, HEIC.
func Sniff(data []byte) (ContentKind, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", models.ErrInvalidDocument)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidDocument, err)
	}

	switch kind.Extension {
	case "pdf":
		return ContentPDF, nil
	case "png", "jpg", "heif":
		return ContentImage, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", models.ErrInvalidDocument, kind.Extension)
	}
}
