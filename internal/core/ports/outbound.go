package ports

import (
	"context"
	"io"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

// Embedder builds vectors for chunks and query text. All vectors produced by
// one configured backend share a single dimensionality.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits source text into overlapping fixed-size chunks.
type Chunker interface {
	Split(sourceID, text string) []domain.Chunk
}

// VectorIndex persists (vector, chunk, metadata) entries and performs
// nearest-neighbor search. Search on an empty index returns an empty slice,
// not an error.
type VectorIndex interface {
	IndexChunks(ctx context.Context, doc *domain.SourceDocument, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// TextGenerator is the opaque generation client: prompt in, free text out.
// Every returned string is untrusted; parsing happens downstream.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SubjectTagger classifies ingested study material into an SAT section and
// topic list.
type SubjectTagger interface {
	Tag(ctx context.Context, text string) (domain.SubjectTags, error)
}

// DocumentRepository persists and reads source-document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.SourceDocument) error
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveTags(ctx context.Context, id string, tags domain.SubjectTags, chunkCount int) error
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.SourceDocument) (string, error)
}

// AttemptStore persists question attempts and aggregates performance.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt *domain.QuestionAttempt) error
	PerformanceByTopic(ctx context.Context, userID string) ([]domain.TopicPerformance, error)
}

// ProfileStore persists the learner profile, including the assessed
// knowledge level.
type ProfileStore interface {
	SaveKnowledgeLevel(ctx context.Context, userID string, level domain.KnowledgeLevel) error
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// SessionStore holds per-user tutoring sessions with explicit lifecycle
// instead of ambient process state.
type SessionStore interface {
	Get(userID string) (*domain.Session, bool)
	Create(userID, persona string) *domain.Session
	Update(session *domain.Session)
}
