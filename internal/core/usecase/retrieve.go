package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
)

type RankingPolicy string

const (
	PolicySimilarity RankingPolicy = "similarity"
	PolicyMMR        RankingPolicy = "mmr"
)

type RetrieverConfig struct {
	TopK          int
	Policy        RankingPolicy
	Candidates    int
	MMRLambda     float64
	MinSimilarity float64
}

func (c RetrieverConfig) normalize() RetrieverConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.Policy != PolicyMMR {
		out.Policy = PolicySimilarity
	}
	if out.Candidates < out.TopK {
		out.Candidates = out.TopK * 4
	}
	if out.MMRLambda <= 0 || out.MMRLambda > 1 {
		out.MMRLambda = 0.5
	}
	return out
}

// Retriever wraps the vector index with a fixed retrieval policy. The policy
// and K are construction-time configuration, not per-call parameters.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	cfg      RetrieverConfig
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, cfg RetrieverConfig) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		cfg:      cfg.normalize(),
	}
}

// Retrieve returns up to K passages ranked for the query. An empty index or
// an all-filtered result yields an empty slice, never an error: "no
// knowledge" is a legitimate outcome the caller must handle.
func (r *Retriever) Retrieve(ctx context.Context, queryText string) ([]domain.RetrievedPassage, error) {
	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index entries: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := r.cfg.TopK
	if r.cfg.Policy == PolicyMMR {
		limit = r.cfg.Candidates
	}
	if limit > count {
		limit = count
	}

	hits, err := r.index.Search(ctx, queryVector, limit, domain.SearchFilter{})
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	if r.cfg.MinSimilarity > 0 {
		hits = filterByScore(hits, r.cfg.MinSimilarity)
	}
	if r.cfg.Policy == PolicyMMR {
		hits = rerankMMR(queryVector, hits, r.cfg.TopK, r.cfg.MMRLambda)
	}
	if len(hits) > r.cfg.TopK {
		hits = hits[:r.cfg.TopK]
	}

	out := make([]domain.RetrievedPassage, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.RetrievedPassage{Text: hit.Text, Score: hit.Score})
	}
	return out, nil
}

func filterByScore(hits []domain.ScoredChunk, minScore float64) []domain.ScoredChunk {
	out := hits[:0]
	for _, hit := range hits {
		if hit.Score >= minScore {
			out = append(out, hit)
		}
	}
	return out
}

// JoinPassages concatenates retrieved passages with a paragraph separator
// for prompt assembly.
func JoinPassages(passages []domain.RetrievedPassage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

func allBlank(passages []domain.RetrievedPassage) bool {
	for _, p := range passages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}
