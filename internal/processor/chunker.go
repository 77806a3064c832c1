package processor

import (
	"strings"
	"unicode"

	"tutor-rag/internal/models"
)

// chunkPage splits one page of text into overlapping chunks. Sentences are
// accumulated greedily until the target size would be exceeded; the next chunk
// is seeded with the tail of the one just closed. chunkIndex increases
// globally across the whole document, not per page.
func (p *Processor) chunkPage(text string, pageNum int, chunkIndex *int) []models.Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []models.Chunk
	var current []string
	currentLen := 0

	flush := func() {
		chunkText := strings.Join(current, " ")
		chunks = append(chunks, models.Chunk{
			Text:       chunkText,
			Page:       pageNum,
			ChunkIndex: *chunkIndex,
			Kind:       models.ChunkKindText,
			Metadata:   map[string]any{"char_count": len(chunkText)},
		})
		*chunkIndex++
	}

	for _, sentence := range sentences {
		if currentLen+len(sentence) > p.chunkSize && len(current) > 0 {
			flush()

			// Seed the next chunk with the trailing overlap of the closed one.
			closed := strings.Join(current, " ")
			overlap := closed
			if len(closed) > p.chunkOverlap {
				overlap = closed[len(closed)-p.chunkOverlap:]
			}
			current = current[:0]
			currentLen = 0
			if overlap != "" {
				current = append(current, overlap)
				currentLen = len(overlap)
			}
		}
		current = append(current, sentence)
		currentLen += len(sentence)
	}

	if len(current) > 0 {
		flush()
	}
	return chunks
}

// splitSentences breaks text on sentence-terminal punctuation followed by
// whitespace. Trailing text without a terminator is kept as a final sentence
// so no content is dropped.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if isSentenceEnd(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
