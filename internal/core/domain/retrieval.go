package domain

// Chunk is a bounded span of source text prepared for embedding. Offset is
// the rune position of the chunk inside its source document.
type Chunk struct {
	SourceID string
	Offset   int
	Text     string
}

type SearchFilter struct {
	Subject string
}

// ScoredChunk is one nearest-neighbor search hit. Embedding is carried so
// diversity-aware reranking can measure redundancy between hits.
type ScoredChunk struct {
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`
	Subject    string    `json:"subject"`
	Offset     int       `json:"offset"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
	Embedding  []float32 `json:"-"`
}

// RetrievedPassage is what the retriever hands to the prompt assembler.
type RetrievedPassage struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
