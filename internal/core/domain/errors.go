package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrGeneration       = errors.New("generation failure")
	ErrNoContext        = errors.New("no context found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type ParseErrorKind string

const (
	ParseErrorMalformedJSON   ParseErrorKind = "malformed_json"
	ParseErrorSchemaViolation ParseErrorKind = "schema_violation"
)

// ParseError reports why a model response could not be turned into a
// structured object. Raw keeps the unmodified model output for diagnostics;
// it is never discarded.
type ParseError struct {
	Kind   ParseErrorKind
	Detail string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response: %s: %s", e.Kind, e.Detail)
}

func AsParseError(err error) (*ParseError, bool) {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr, true
	}
	return nil, false
}
