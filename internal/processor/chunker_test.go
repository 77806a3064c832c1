package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic sentences",
			text: "First sentence. Second sentence! Third sentence?",
			want: []string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			name: "trailing text without terminator is kept",
			text: "Complete sentence. Trailing fragment",
			want: []string{"Complete sentence.", "Trailing fragment"},
		},
		{
			name: "decimal points do not split",
			text: "The value is 3.14 exactly. Next sentence.",
			want: []string{"The value is 3.14 exactly.", "Next sentence."},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
		{
			name: "newline separated",
			text: "One.\nTwo.",
			want: []string{"One.", "Two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestChunkPageSizeAndOverlap(t *testing.T) {
	p := NewProcessor(100, 20)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This is a filler sentence used for chunking. ")
	}
	text := sb.String()

	idx := 0
	chunks := p.chunkPage(text, 1, &idx)
	require.Greater(t, len(chunks), 1)

	longestSentence := len("This is a filler sentence used for chunking.")
	for _, c := range chunks {
		assert.NotEmpty(t, c.Text)
		assert.Equal(t, 1, c.Page)
		assert.Equal(t, models.ChunkKindText, c.Kind)
		// A chunk may exceed the target only by the sentence that straddled
		// the boundary plus the seeded overlap.
		assert.LessOrEqual(t, len(c.Text), 100+longestSentence+20+2)
		assert.Equal(t, len(c.Text), c.Metadata["char_count"])
	}

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		overlap := prev[len(prev)-20:]
		assert.True(t, strings.HasPrefix(chunks[i].Text, overlap),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestChunkPageNoSentenceDropped(t *testing.T) {
	p := NewProcessor(80, 10)

	sentences := []string{
		"Alpha is the first letter.",
		"Beta follows alpha closely.",
		"Gamma is third in order.",
		"Delta comes right after gamma.",
		"Epsilon finishes this little list.",
	}
	idx := 0
	chunks := p.chunkPage(strings.Join(sentences, " "), 2, &idx)
	require.NotEmpty(t, chunks)

	joined := ""
	for _, c := range chunks {
		joined += c.Text + " "
	}
	for _, s := range sentences {
		assert.Contains(t, joined, s)
	}
}

func TestChunkIndicesIncreaseAcrossPages(t *testing.T) {
	p := NewProcessor(50, 10)

	idx := 0
	page1 := p.chunkPage("One sentence here. Another sentence here. A third sentence here.", 1, &idx)
	page2 := p.chunkPage("Page two begins now. It also has sentences. Plenty of them in fact.", 2, &idx)

	all := append(append([]models.Chunk{}, page1...), page2...)
	require.Greater(t, len(all), 2)
	for i, c := range all {
		assert.Equal(t, i, c.ChunkIndex)
	}
	assert.Equal(t, 2, page2[0].Page)
}

func TestChunkPageShortTextSingleChunk(t *testing.T) {
	p := NewProcessor(800, 100)

	idx := 0
	chunks := p.chunkPage("Just one short sentence.", 3, &idx)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short sentence.", chunks[0].Text)
	assert.Equal(t, 3, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, idx)
}
