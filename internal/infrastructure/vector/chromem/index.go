// Package chromem adapts the embedded chromem-go vector database to the
// VectorIndex port. Storage is a directory on disk: an absent directory
// starts an empty index, an existing one loads transparently.
package chromem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
)

type Index struct {
	collection *chromemgo.Collection
}

func New(path, collection string, embedder ports.Embedder) (*Index, error) {
	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db at %s: %w", path, err)
	}

	coll, err := db.GetOrCreateCollection(collection, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collection, err)
	}
	return &Index{collection: coll}, nil
}

// embeddingFunc bridges the Embedder port into chromem's callback. Inserts
// pass precomputed vectors, so this only runs for stray text-only calls.
func embeddingFunc(embedder ports.Embedder) chromemgo.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

// IndexChunks persists one entry per chunk. Entry IDs are content hashes of
// (source id, offset, text), so re-processing the same document upserts the
// same entries instead of duplicating them.
func (idx *Index) IndexChunks(
	ctx context.Context,
	doc *domain.SourceDocument,
	chunks []domain.Chunk,
	vectors [][]float32,
) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	docs := make([]chromemgo.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromemgo.Document{
			ID:        chunkID(chunk),
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"doc_id":  doc.ID,
				"source":  doc.Filename,
				"subject": doc.Subject,
				"offset":  strconv.Itoa(chunk.Offset),
			},
		})
	}

	if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// Search returns up to limit nearest entries by cosine similarity, ordered
// by non-increasing score. An empty index yields an empty result, not an
// error.
func (idx *Index) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.ScoredChunk, error) {
	count := idx.collection.Count()
	if count == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	var where map[string]string
	if filter.Subject != "" {
		where = map[string]string{"subject": filter.Subject}
	}

	results, err := idx.collection.QueryEmbedding(ctx, queryVector, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query vector db: %w", err)
	}

	out := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		offset, _ := strconv.Atoi(r.Metadata["offset"])
		out = append(out, domain.ScoredChunk{
			DocumentID: r.Metadata["doc_id"],
			Source:     r.Metadata["source"],
			Subject:    r.Metadata["subject"],
			Offset:     offset,
			Text:       r.Content,
			Score:      float64(r.Similarity),
			Embedding:  r.Embedding,
		})
	}
	return out, nil
}

func (idx *Index) Count(_ context.Context) (int, error) {
	return idx.collection.Count(), nil
}

func chunkID(chunk domain.Chunk) string {
	h := sha256.New()
	h.Write([]byte(chunk.SourceID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(chunk.Offset)))
	h.Write([]byte{0})
	h.Write([]byte(chunk.Text))
	return hex.EncodeToString(h.Sum(nil))
}
