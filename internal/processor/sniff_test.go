package processor

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func TestSniff(t *testing.T) {
	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil))

	pngData := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 2, 2)))

	tests := []struct {
		name    string
		data    []byte
		want    ContentKind
		wantErr error
	}{
		{name: "pdf", data: []byte("%PDF-1.7\n..."), want: ContentPDF},
		{name: "png", data: pngData, want: ContentImage},
		{name: "jpeg", data: jpegBuf.Bytes(), want: ContentImage},
		{name: "plain text", data: []byte("just some text"), wantErr: models.ErrInvalidDocument},
		{name: "empty", data: nil, wantErr: models.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Sniff(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}
