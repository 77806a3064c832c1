package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	_ "image/jpeg" // register JPEG decoding

	_ "github.com/gen2brain/heic" // register HEIC decoding
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
)

// ImageInfo describes a decoded upload before normalization.
type ImageInfo struct {
	Format string `json:"format"`
	Mode   string `json:"mode"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ProcessImage decodes an uploaded image, records its metadata, normalizes the
// color mode to RGB (grayscale is kept as-is) and re-encodes it as PNG for
// consistent downstream handling.
func (p *Processor) ProcessImage(data []byte) ([]byte, ImageInfo, error) {
	if len(data) == 0 {
		return nil, ImageInfo{}, fmt.Errorf("%w: file is empty", models.ErrInvalidImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	info := ImageInfo{
		Format: format,
		Mode:   colorMode(img),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	switch img.(type) {
	case *image.RGBA, *image.Gray:
		// already in a canonical mode
	default:
		rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
		img = rgba
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, ImageInfo{}, fmt.Errorf("%w: re-encoding failed: %v", models.ErrInvalidImage, err)
	}

	log.Info().
		Str("format", info.Format).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("processed image")

	return out.Bytes(), info, nil
}

func colorMode(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "L"
	case *image.NRGBA, *image.NRGBA64, *image.RGBA64:
		return "RGBA"
	case *image.RGBA:
		return "RGBA"
	case *image.YCbCr:
		return "YCbCr"
	case *image.Paletted:
		return "P"
	default:
		return "RGB"
	}
}
