// Package extractor routes text extraction by document mime type.
package extractor

import (
	"context"
	"strings"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
)

type Router struct {
	pdf      ports.TextExtractor
	fallback ports.TextExtractor
}

func NewRouter(pdf, fallback ports.TextExtractor) *Router {
	return &Router{pdf: pdf, fallback: fallback}
}

func (r *Router) Extract(ctx context.Context, doc *domain.SourceDocument) (string, error) {
	mime := strings.ToLower(doc.MimeType)
	if mime == "application/pdf" || strings.HasSuffix(strings.ToLower(doc.Filename), ".pdf") {
		return r.pdf.Extract(ctx, doc)
	}
	return r.fallback.Extract(ctx, doc)
}
