package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
)

// AssessKnowledgeUseCase infers a learner's proficiency map from free-form
// input, persists it to the profile store and refreshes the session cache.
type AssessKnowledgeUseCase struct {
	generator ports.TextGenerator
	profiles  ports.ProfileStore
	sessions  ports.SessionStore
	timeout   time.Duration
}

func NewAssessKnowledgeUseCase(
	generator ports.TextGenerator,
	profiles ports.ProfileStore,
	sessions ports.SessionStore,
	timeout time.Duration,
) *AssessKnowledgeUseCase {
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	return &AssessKnowledgeUseCase{
		generator: generator,
		profiles:  profiles,
		sessions:  sessions,
		timeout:   timeout,
	}
}

func (uc *AssessKnowledgeUseCase) Assess(ctx context.Context, userID, input, topicArea string) (domain.KnowledgeLevel, error) {
	if userID == "" || input == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "assess knowledge",
			errors.New("user_id and user_input are required"))
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.generator.Generate(genCtx, prompt.BuildAssessmentRequest(userID, input, topicArea))
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "assess knowledge", err)
	}

	level, err := parser.ParseKnowledgeLevel(raw)
	if err != nil {
		return nil, err
	}

	if uc.profiles != nil {
		if err := uc.profiles.SaveKnowledgeLevel(ctx, userID, level); err != nil {
			return nil, fmt.Errorf("save knowledge level: %w", err)
		}
	}
	if uc.sessions != nil {
		session, ok := uc.sessions.Get(userID)
		if !ok {
			session = uc.sessions.Create(userID, "sat_tutor")
		}
		session.KnowledgeLevel = level
		uc.sessions.Update(session)
	}
	return level, nil
}
