package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
)

type EvaluateAnswerUseCase struct {
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewEvaluateAnswerUseCase(generator ports.TextGenerator, timeout time.Duration) *EvaluateAnswerUseCase {
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	return &EvaluateAnswerUseCase{generator: generator, timeout: timeout}
}

func (uc *EvaluateAnswerUseCase) Evaluate(
	ctx context.Context,
	questionText, userAnswer string,
	correct domain.CorrectAnswerInfo,
) (*domain.AnswerFeedback, error) {
	if questionText == "" || userAnswer == "" || correct.Answer == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate answer",
			errors.New("question_text, user_answer and correct_answer_info are required"))
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.generator.Generate(genCtx, prompt.BuildEvaluationRequest(questionText, userAnswer, correct))
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "evaluate answer", err)
	}
	return parser.ParseFeedback(raw)
}
