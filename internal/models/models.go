package models

// ChunkKind distinguishes text chunks from synthetic image descriptions.
type ChunkKind string

const (
	ChunkKindText             ChunkKind = "text"
	ChunkKindImageDescription ChunkKind = "image_description"
)

// Chunk is the unit of retrievable content extracted from a document.
// Chunks are created once during processing and never mutated.
type Chunk struct {
	Text       string
	Page       int
	ChunkIndex int
	Kind       ChunkKind
	Metadata   map[string]any
}

// Citation points a reply back at the chunk it was grounded on.
type Citation struct {
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
	Kind    string `json:"kind"`
}

// QueryMetadata carries retrieval bookkeeping back to the caller.
type QueryMetadata struct {
	ChunksRetrieved   int    `json:"chunks_retrieved"`
	FallbackToGeneral bool   `json:"fallback_to_general"`
	Model             string `json:"model,omitempty"`
	QueryType         string `json:"query_type,omitempty"`
}

// QueryResult is the response shape for session queries. A nil Reply with
// FallbackToGeneral set means the question is not about the document and the
// caller should route it to a general-purpose responder.
type QueryResult struct {
	Reply     *string       `json:"reply"`
	Citations []Citation    `json:"source_citations"`
	Metadata  QueryMetadata `json:"metadata"`
}
