package chunking

import "github.com/avolkov/sat-prep-backend/internal/core/domain"

// Splitter cuts source text into fixed-size chunks where each adjacent pair
// shares exactly Overlap runes. The final chunk may be shorter. Chunks are
// not trimmed, so concatenating them with the overlap removed reconstructs
// the input exactly.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(sourceID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]domain.Chunk, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, domain.Chunk{
			SourceID: sourceID,
			Offset:   start,
			Text:     string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return out
}
