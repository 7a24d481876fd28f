package httpadapter

import (
	"net/http"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoContext):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody shapes an error response. Parse failures carry their kind and
// detail so clients can distinguish malformed model output from schema
// violations; the raw model output stays in server logs only.
func errorBody(err error) map[string]any {
	if parseErr, ok := domain.AsParseError(err); ok {
		return map[string]any{
			"error": "model response could not be parsed",
			"details": map[string]string{
				"kind":   string(parseErr.Kind),
				"detail": parseErr.Detail,
			},
		}
	}
	if domain.IsKind(err, domain.ErrNoContext) {
		return map[string]any{
			"message": "no relevant study material found for this topic, upload documents first",
		}
	}
	return map[string]any{"error": err.Error()}
}
