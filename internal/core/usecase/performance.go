package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
)

// PerformanceSummaryUseCase aggregates a learner's attempts into the three
// SAT sections. Topics that match no section keyword land in Other.
type PerformanceSummaryUseCase struct {
	attempts ports.AttemptStore
}

func NewPerformanceSummaryUseCase(attempts ports.AttemptStore) *PerformanceSummaryUseCase {
	return &PerformanceSummaryUseCase{attempts: attempts}
}

var sectionKeywords = map[string][]string{
	"math": {
		"math", "algebra", "geometry", "trigonometry", "statistics",
		"probability", "equation", "function", "exponent", "ratio",
	},
	"reading": {
		"reading", "comprehension", "passage", "vocabulary", "inference",
		"main idea", "evidence",
	},
	"writing": {
		"writing", "grammar", "punctuation", "rhetoric", "essay",
		"sentence", "transition",
	},
}

func (uc *PerformanceSummaryUseCase) Summary(ctx context.Context, userID string) (*domain.PerformanceSummary, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "performance summary", errors.New("user_id is required"))
	}

	perTopic, err := uc.attempts.PerformanceByTopic(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load performance: %w", err)
	}

	summary := &domain.PerformanceSummary{
		Math:    map[string]domain.TopicPerformance{},
		Reading: map[string]domain.TopicPerformance{},
		Writing: map[string]domain.TopicPerformance{},
		Other:   map[string]domain.TopicPerformance{},
	}
	for _, perf := range perTopic {
		switch classifySection(perf.Topic) {
		case "math":
			summary.Math[perf.Topic] = perf
		case "reading":
			summary.Reading[perf.Topic] = perf
		case "writing":
			summary.Writing[perf.Topic] = perf
		default:
			summary.Other[perf.Topic] = perf
		}
	}
	return summary, nil
}

func classifySection(topic string) string {
	lowered := strings.ToLower(topic)
	for _, section := range []string{"math", "reading", "writing"} {
		for _, keyword := range sectionKeywords[section] {
			if strings.Contains(lowered, keyword) {
				return section
			}
		}
	}
	return "other"
}
