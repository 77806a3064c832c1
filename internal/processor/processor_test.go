package processor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func TestProcessPDFRejectsNonPDF(t *testing.T) {
	p := NewProcessor(800, 100)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty input", data: nil, want: models.ErrInvalidDocument},
		{name: "zero bytes", data: []byte{}, want: models.ErrInvalidDocument},
		{name: "plain text", data: []byte("hello world, definitely not a pdf"), want: models.ErrInvalidDocument},
		{name: "png magic", data: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, want: models.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, images, err := p.ProcessPDF(tt.data)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, chunks)
			assert.Nil(t, images)
		})
	}
}

func TestProcessPDFCorruptStream(t *testing.T) {
	p := NewProcessor(800, 100)

	// Valid signature, garbage body: the parser cannot open the stream.
	data := []byte("%PDF-1.4\nthis is not a real pdf body at all\n%%EOF")
	chunks, images, err := p.ProcessPDF(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCorruptDocument)
	assert.Nil(t, chunks)
	assert.Nil(t, images)
}

// encryptedPDF builds a minimal PDF whose trailer carries a standard-security
// /Encrypt dictionary with keys that no password satisfies.
func encryptedPDF() []byte {
	body := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"
	enc := "<< /Filter /Standard /V 1 /R 2 /Length 40 /P -1 /O (" +
		strings.Repeat("A", 32) + ") /U (" + strings.Repeat("B", 32) + ") >>"
	xref := "xref\n0 2\n0000000000 65535 f \n0000000009 00000 n \n" +
		"trailer\n<< /Size 2 /Root 1 0 R /ID [(0123456789ABCDEF) (0123456789ABCDEF)] /Encrypt " + enc + " >>\n"
	return []byte(body + xref + fmt.Sprintf("startxref\n%d\n%%%%EOF", len(body)))
}

func TestProcessPDFEncrypted(t *testing.T) {
	p := NewProcessor(800, 100)

	chunks, images, err := p.ProcessPDF(encryptedPDF())
	require.ErrorIs(t, err, models.ErrEncryptedDocument)
	assert.Nil(t, chunks)
	assert.Nil(t, images)
}

func TestNewProcessorDefaults(t *testing.T) {
	p := NewProcessor(0, -1)
	assert.Equal(t, defaultChunkSize, p.chunkSize)
	assert.Equal(t, defaultChunkOverlap, p.chunkOverlap)

	// Overlap must stay below the chunk size.
	p = NewProcessor(50, 50)
	assert.Equal(t, 25, p.chunkOverlap)
}
