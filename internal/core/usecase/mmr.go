package usecase

import (
	"math"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

// rerankMMR applies maximal marginal relevance over the candidate pool:
// each step picks the candidate maximizing
// lambda*sim(query, c) - (1-lambda)*max sim(c, selected).
// The result is a permutation drawn from the candidates, at most topK long.
// Candidates without embeddings keep their original order at the tail.
func rerankMMR(queryVector []float32, candidates []domain.ScoredChunk, topK int, lambda float64) []domain.ScoredChunk {
	if len(candidates) <= 1 || topK <= 0 {
		return candidates
	}
	if topK > len(candidates) {
		topK = len(candidates)
	}

	withVec := make([]domain.ScoredChunk, 0, len(candidates))
	withoutVec := make([]domain.ScoredChunk, 0)
	for _, c := range candidates {
		if len(c.Embedding) > 0 {
			withVec = append(withVec, c)
		} else {
			withoutVec = append(withoutVec, c)
		}
	}
	if len(withVec) == 0 {
		return candidates
	}

	querySim := make([]float64, len(withVec))
	for i, c := range withVec {
		querySim[i] = cosineSimilarity(queryVector, c.Embedding)
	}

	selected := make([]domain.ScoredChunk, 0, topK)
	picked := make([]bool, len(withVec))

	for len(selected) < topK && len(selected) < len(withVec) {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := range withVec {
			if picked[i] {
				continue
			}
			redundancy := 0.0
			for _, s := range selected {
				if sim := cosineSimilarity(withVec[i].Embedding, s.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*querySim[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		picked[bestIdx] = true
		selected = append(selected, withVec[bestIdx])
	}

	for i := range withVec {
		if !picked[i] {
			selected = append(selected, withVec[i])
		}
	}
	return append(selected, withoutVec...)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
