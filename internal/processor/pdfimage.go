package processor

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// extractPageImages walks the page's XObject resources and re-encodes raster
// image streams as PNG. Streams the pdf package cannot decode (DCT-compressed
// and exotic color spaces) are skipped; a failed image never fails the page.
func extractPageImages(page pdf.Page, pageNum int) []PageImage {
	xobj := page.V.Key("Resources").Key("XObject")
	if xobj.Kind() != pdf.Dict {
		return nil
	}

	var out []PageImage
	for _, name := range xobj.Keys() {
		data := decodeImageObject(xobj.Key(name))
		if data == nil {
			log.Debug().Int("page", pageNum).Str("xobject", name).Msg("skipping undecodable image stream")
			continue
		}
		out = append(out, PageImage{Data: data, Page: pageNum})
	}
	return out
}

// decodeImageObject returns PNG bytes for an 8-bit DeviceRGB or DeviceGray
// image stream, or nil if the object is not a decodable image. The pdf
// package panics on unsupported stream filters, so failures are contained here.
func decodeImageObject(v pdf.Value) (data []byte) {
	defer func() {
		if recover() != nil {
			data = nil
		}
	}()

	if v.Kind() != pdf.Stream || v.Key("Subtype").Name() != "Image" {
		return nil
	}
	w := int(v.Key("Width").Int64())
	h := int(v.Key("Height").Int64())
	if w <= 0 || h <= 0 || v.Key("BitsPerComponent").Int64() != 8 {
		return nil
	}

	raw, err := io.ReadAll(v.Reader())
	if err != nil {
		return nil
	}

	var img image.Image
	switch v.Key("ColorSpace").Name() {
	case "DeviceRGB":
		if len(raw) < w*h*3 {
			return nil
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				src := (y*w + x) * 3
				dst := y*rgba.Stride + x*4
				rgba.Pix[dst] = raw[src]
				rgba.Pix[dst+1] = raw[src+1]
				rgba.Pix[dst+2] = raw[src+2]
				rgba.Pix[dst+3] = 0xff
			}
		}
		img = rgba
	case "DeviceGray":
		if len(raw) < w*h {
			return nil
		}
		img = &image.Gray{Pix: raw[:w*h], Stride: w, Rect: image.Rect(0, 0, w, h)}
	default:
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
