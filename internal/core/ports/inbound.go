package ports

import (
	"context"
	"io"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

// QuestionService is the inbound contract for question generation.
type QuestionService interface {
	GenerateQuestion(ctx context.Context, params domain.GenerationParams) (*domain.Question, error)
	GenerateQuestionFromContext(ctx context.Context, params domain.GenerationParams) (*domain.Question, error)
}

// AnswerEvaluator grades a student answer against the known correct answer.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, questionText, userAnswer string, correct domain.CorrectAnswerInfo) (*domain.AnswerFeedback, error)
}

// StudyPlanner builds a personalized study plan.
type StudyPlanner interface {
	Plan(ctx context.Context, performance domain.PerformanceSummary, profile domain.UserProfile) (*domain.StudyPlan, error)
}

// KnowledgeAssessor infers a learner's proficiency map from free-form input.
type KnowledgeAssessor interface {
	Assess(ctx context.Context, userID, input, topicArea string) (domain.KnowledgeLevel, error)
}

// DocumentIngestor is the inbound contract for corpus upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.SourceDocument, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingestion.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
