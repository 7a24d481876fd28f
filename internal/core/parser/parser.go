// Package parser turns untrusted model output into validated domain objects.
// Every upstream failure mode (drift, truncation, stray prose) surfaces here
// as a typed ParseError instead of a crash or silently wrong data.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

// StripFence removes a surrounding fenced code block (optionally tagged, e.g.
// ```json) and returns the trimmed payload. Text without a fence is returned
// trimmed as-is.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	rest := text[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		// Drop the opening fence line together with its language tag.
		rest = rest[idx+1:]
	} else {
		// One-line payload like ```{...}```, keep whatever follows the fence.
		rest = strings.TrimPrefix(rest, "json")
	}

	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// CleanControlChars strips characters that are illegal inside JSON string
// literals but occasionally emitted by models: C0 controls except tab,
// newline and carriage return, plus the C1 range. Stripped, not escaped.
func CleanControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20:
			return -1
		case r >= 0x80 && r <= 0x9F:
			return -1
		default:
			return r
		}
	}, s)
}

// questionPayload mirrors the generation output contract before validation.
type questionPayload struct {
	Passage           *string  `json:"passage"`
	QuestionText      *string  `json:"question_text"`
	Options           []string `json:"options"`
	CorrectAnswerInfo *struct {
		Answer      *string `json:"answer"`
		Explanation *string `json:"explanation"`
	} `json:"correct_answer_info"`
}

// ParseQuestion extracts, cleans, parses and validates one generated
// question. The returned error, when non-nil, is always a *domain.ParseError
// carrying the raw model output.
func ParseQuestion(raw string, questionType domain.QuestionType) (*domain.Question, error) {
	payloadText := CleanControlChars(StripFence(raw))

	var payload questionPayload
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
		return nil, &domain.ParseError{
			Kind:   domain.ParseErrorMalformedJSON,
			Detail: err.Error(),
			Raw:    raw,
		}
	}

	if err := validateQuestion(payload, questionType, raw); err != nil {
		return nil, err
	}

	question := &domain.Question{
		QuestionText: *payload.QuestionText,
		Options:      payload.Options,
		CorrectAnswerInfo: domain.CorrectAnswerInfo{
			Answer:      *payload.CorrectAnswerInfo.Answer,
			Explanation: *payload.CorrectAnswerInfo.Explanation,
		},
	}
	if questionType == domain.QuestionTypeReadingComprehension {
		question.Passage = payload.Passage
	}
	return question, nil
}

func validateQuestion(payload questionPayload, questionType domain.QuestionType, raw string) error {
	schemaErr := func(format string, args ...any) error {
		return &domain.ParseError{
			Kind:   domain.ParseErrorSchemaViolation,
			Detail: fmt.Sprintf(format, args...),
			Raw:    raw,
		}
	}

	if payload.QuestionText == nil || strings.TrimSpace(*payload.QuestionText) == "" {
		return schemaErr("question_text is missing or empty")
	}
	if len(payload.Options) != domain.OptionCount {
		return schemaErr("options must contain exactly %d entries, got %d", domain.OptionCount, len(payload.Options))
	}
	for i, option := range payload.Options {
		if strings.TrimSpace(option) == "" {
			return schemaErr("options[%d] is empty", i)
		}
	}
	if payload.CorrectAnswerInfo == nil {
		return schemaErr("correct_answer_info is missing")
	}
	if payload.CorrectAnswerInfo.Answer == nil || strings.TrimSpace(*payload.CorrectAnswerInfo.Answer) == "" {
		return schemaErr("correct_answer_info.answer is missing or empty")
	}
	if payload.CorrectAnswerInfo.Explanation == nil || strings.TrimSpace(*payload.CorrectAnswerInfo.Explanation) == "" {
		return schemaErr("correct_answer_info.explanation is missing or empty")
	}
	if questionType == domain.QuestionTypeReadingComprehension {
		if payload.Passage == nil || strings.TrimSpace(*payload.Passage) == "" {
			return schemaErr("passage is required for reading_comprehension questions")
		}
	}
	return nil
}

// ParseFeedback parses the answer-evaluation output.
func ParseFeedback(raw string) (*domain.AnswerFeedback, error) {
	var feedback domain.AnswerFeedback
	if err := parseJSONPayload(raw, &feedback); err != nil {
		return nil, err
	}
	if feedback.FeedbackSummary == "" {
		return nil, &domain.ParseError{
			Kind:   domain.ParseErrorSchemaViolation,
			Detail: "feedback_summary is missing or empty",
			Raw:    raw,
		}
	}
	return &feedback, nil
}

// ParseStudyPlan parses the study-plan output.
func ParseStudyPlan(raw string) (*domain.StudyPlan, error) {
	var plan domain.StudyPlan
	if err := parseJSONPayload(raw, &plan); err != nil {
		return nil, err
	}
	if plan.Summary == "" {
		return nil, &domain.ParseError{
			Kind:   domain.ParseErrorSchemaViolation,
			Detail: "summary is missing or empty",
			Raw:    raw,
		}
	}
	return &plan, nil
}

// ParseKnowledgeLevel parses the knowledge-assessment output.
func ParseKnowledgeLevel(raw string) (domain.KnowledgeLevel, error) {
	var level domain.KnowledgeLevel
	if err := parseJSONPayload(raw, &level); err != nil {
		return nil, err
	}
	if len(level) == 0 {
		return nil, &domain.ParseError{
			Kind:   domain.ParseErrorSchemaViolation,
			Detail: "assessment produced no topic areas",
			Raw:    raw,
		}
	}
	return level, nil
}

// ParseSubjectTags parses the ingestion-time classification output.
func ParseSubjectTags(raw string) (domain.SubjectTags, error) {
	var tags domain.SubjectTags
	if err := parseJSONPayload(raw, &tags); err != nil {
		return domain.SubjectTags{}, err
	}
	if tags.Subject == "" {
		return domain.SubjectTags{}, &domain.ParseError{
			Kind:   domain.ParseErrorSchemaViolation,
			Detail: "subject is missing or empty",
			Raw:    raw,
		}
	}
	if tags.Topics == nil {
		tags.Topics = []string{}
	}
	return tags, nil
}

func parseJSONPayload(raw string, out any) error {
	payloadText := CleanControlChars(StripFence(raw))
	if err := json.Unmarshal([]byte(payloadText), out); err != nil {
		return &domain.ParseError{
			Kind:   domain.ParseErrorMalformedJSON,
			Detail: err.Error(),
			Raw:    raw,
		}
	}
	return nil
}
