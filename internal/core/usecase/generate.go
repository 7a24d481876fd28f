package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
)

const defaultGenerateTimeout = 30 * time.Second

// GenerateQuestionUseCase orchestrates the generation pipeline:
// retrieve -> assemble -> generate -> parse. It holds no per-request state
// and is safe for concurrent callers.
type GenerateQuestionUseCase struct {
	retriever   *Retriever
	generator   ports.TextGenerator
	sessions    ports.SessionStore
	profiles    ports.ProfileStore
	timeout     time.Duration
	onRetrieval func(passages int)
}

func NewGenerateQuestionUseCase(
	retriever *Retriever,
	generator ports.TextGenerator,
	sessions ports.SessionStore,
	profiles ports.ProfileStore,
	timeout time.Duration,
) *GenerateQuestionUseCase {
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	return &GenerateQuestionUseCase{
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		profiles:  profiles,
		timeout:   timeout,
	}
}

// OnRetrieval registers a callback invoked once per grounded generation with
// the number of usable retrieved passages, zero included. Set before serving
// traffic; not synchronized against concurrent registration.
func (uc *GenerateQuestionUseCase) OnRetrieval(fn func(passages int)) {
	uc.onRetrieval = fn
}

// GenerateQuestion produces a question from the topic alone, without
// retrieval grounding.
func (uc *GenerateQuestionUseCase) GenerateQuestion(
	ctx context.Context,
	params domain.GenerationParams,
) (*domain.Question, error) {
	params = uc.applyDefaults(ctx, params)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	request := prompt.BuildQuestionRequest(params)
	return uc.generateAndParse(ctx, request, params.QuestionType)
}

// GenerateQuestionFromContext grounds the question in passages retrieved for
// the topic. When retrieval yields nothing usable it short-circuits with
// ErrNoContext before any model call is paid for.
func (uc *GenerateQuestionUseCase) GenerateQuestionFromContext(
	ctx context.Context,
	params domain.GenerationParams,
) (*domain.Question, error) {
	params = uc.applyDefaults(ctx, params)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	passages, err := uc.retriever.Retrieve(ctx, params.Topic)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	usable := len(passages)
	if allBlank(passages) {
		usable = 0
	}
	if uc.onRetrieval != nil {
		uc.onRetrieval(usable)
	}
	if usable == 0 {
		return nil, domain.WrapError(domain.ErrNoContext, "retrieve context",
			fmt.Errorf("no passages indexed for topic %q", params.Topic))
	}

	request := prompt.BuildQuestionFromContextRequest(params, JoinPassages(passages))
	return uc.generateAndParse(ctx, request, params.QuestionType)
}

func (uc *GenerateQuestionUseCase) generateAndParse(
	ctx context.Context,
	request string,
	questionType domain.QuestionType,
) (*domain.Question, error) {
	genCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.generator.Generate(genCtx, request)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate question", err)
	}

	question, err := parser.ParseQuestion(raw, questionType)
	if err != nil {
		return nil, err
	}
	return question, nil
}

// applyDefaults fills difficulty/type defaults and, when the caller did not
// supply a knowledge level, looks one up from the user's session or durable
// profile.
func (uc *GenerateQuestionUseCase) applyDefaults(ctx context.Context, params domain.GenerationParams) domain.GenerationParams {
	if params.Difficulty == "" {
		params.Difficulty = domain.DifficultyMedium
	}
	if params.QuestionType == "" {
		params.QuestionType = domain.QuestionTypeMultipleChoice
	}
	if len(params.KnowledgeLevel) > 0 || params.UserID == "" {
		return params
	}

	if uc.sessions != nil {
		if session, ok := uc.sessions.Get(params.UserID); ok && len(session.KnowledgeLevel) > 0 {
			params.KnowledgeLevel = session.KnowledgeLevel
			return params
		}
	}
	if uc.profiles != nil {
		if profile, err := uc.profiles.GetProfile(ctx, params.UserID); err == nil && profile != nil {
			params.KnowledgeLevel = profile.KnowledgeLevel
		}
	}
	return params
}

func validateParams(params domain.GenerationParams) error {
	if strings.TrimSpace(params.Topic) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate params", errors.New("topic is required"))
	}
	if !params.Difficulty.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "validate params",
			fmt.Errorf("unknown difficulty %q", params.Difficulty))
	}
	return nil
}
