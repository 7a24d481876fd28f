package usecase

import (
	"context"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
)

type StudyPlanUseCase struct {
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewStudyPlanUseCase(generator ports.TextGenerator, timeout time.Duration) *StudyPlanUseCase {
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	return &StudyPlanUseCase{generator: generator, timeout: timeout}
}

func (uc *StudyPlanUseCase) Plan(
	ctx context.Context,
	performance domain.PerformanceSummary,
	profile domain.UserProfile,
) (*domain.StudyPlan, error) {
	genCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.generator.Generate(genCtx, prompt.BuildStudyPlanRequest(performance, profile))
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate study plan", err)
	}
	return parser.ParseStudyPlan(raw)
}
