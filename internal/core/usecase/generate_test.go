package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

const generatedQuestionJSON = "```json\n" + `{
	"passage": null,
	"question_text": "Solve for x: 3x - 6 = 9.",
	"options": ["3", "4", "5", "6"],
	"correct_answer_info": {
		"answer": "5",
		"explanation": "Add 6 to both sides and divide by 3."
	}
}` + "\n```"

type fakeGenerator struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeSessionStore struct {
	sessions map[string]*domain.Session
}

func (f *fakeSessionStore) Get(userID string) (*domain.Session, bool) {
	s, ok := f.sessions[userID]
	return s, ok
}

func (f *fakeSessionStore) Create(userID, persona string) *domain.Session {
	if f.sessions == nil {
		f.sessions = map[string]*domain.Session{}
	}
	s := &domain.Session{UserID: userID, Persona: persona}
	f.sessions[userID] = s
	return s
}

func (f *fakeSessionStore) Update(session *domain.Session) {
	if f.sessions == nil {
		f.sessions = map[string]*domain.Session{}
	}
	f.sessions[session.UserID] = session
}

type fakeProfileStore struct {
	profiles map[string]*domain.UserProfile
	saved    map[string]domain.KnowledgeLevel
}

func (f *fakeProfileStore) SaveKnowledgeLevel(_ context.Context, userID string, level domain.KnowledgeLevel) error {
	if f.saved == nil {
		f.saved = map[string]domain.KnowledgeLevel{}
	}
	f.saved[userID] = level
	return nil
}

func (f *fakeProfileStore) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return &domain.UserProfile{}, nil
}

func TestGenerateQuestionParsesModelOutput(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	uc := NewGenerateQuestionUseCase(nil, generator, nil, nil, 0)

	question, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if err != nil {
		t.Fatalf("GenerateQuestion() error = %v", err)
	}
	if question.QuestionText != "Solve for x: 3x - 6 = 9." {
		t.Fatalf("question_text = %q", question.QuestionText)
	}
	if generator.calls != 1 {
		t.Fatalf("generator called %d times, want 1", generator.calls)
	}
}

func TestGenerateQuestionRequiresTopic(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	uc := NewGenerateQuestionUseCase(nil, generator, nil, nil, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if generator.calls != 0 {
		t.Fatalf("generator should not run on invalid input")
	}
}

func TestGenerateQuestionRejectsUnknownDifficulty(t *testing.T) {
	uc := NewGenerateQuestionUseCase(nil, &fakeGenerator{}, nil, nil, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{
		Topic:      "Algebra",
		Difficulty: "impossible",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateQuestionWrapsGeneratorFailure(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("model unreachable")}
	uc := NewGenerateQuestionUseCase(nil, generator, nil, nil, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if generator.calls != 1 {
		t.Fatalf("generation must run exactly once, got %d calls", generator.calls)
	}
}

func TestGenerateQuestionSurfacesParseError(t *testing.T) {
	generator := &fakeGenerator{response: "sorry, I cannot do that"}
	uc := NewGenerateQuestionUseCase(nil, generator, nil, nil, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	parseErr, ok := domain.AsParseError(err)
	if !ok {
		t.Fatalf("expected *domain.ParseError, got %v", err)
	}
	if parseErr.Raw != "sorry, I cannot do that" {
		t.Fatalf("raw output not preserved: %q", parseErr.Raw)
	}
	if generator.calls != 1 {
		t.Fatalf("generation must not be retried after a parse failure, got %d calls", generator.calls)
	}
}

func TestGenerateQuestionFromContextShortCircuitsOnEmptyIndex(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	embedder := &fakeEmbedder{queryVector: []float32{1, 0}}
	index := &fakeIndex{count: 0}
	retriever := NewRetriever(embedder, index, RetrieverConfig{TopK: 5})
	uc := NewGenerateQuestionUseCase(retriever, generator, nil, nil, 0)

	_, err := uc.GenerateQuestionFromContext(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if !domain.IsKind(err, domain.ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not run without context, got %d calls", generator.calls)
	}
}

func TestGenerateQuestionFromContextShortCircuitsOnBlankPassages(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	embedder := &fakeEmbedder{queryVector: []float32{1, 0}}
	index := &fakeIndex{count: 2, hits: []domain.ScoredChunk{
		{DocumentID: "a", Text: "   ", Score: 0.9},
		{DocumentID: "b", Text: "\n", Score: 0.8},
	}}
	retriever := NewRetriever(embedder, index, RetrieverConfig{TopK: 5})
	uc := NewGenerateQuestionUseCase(retriever, generator, nil, nil, 0)

	_, err := uc.GenerateQuestionFromContext(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if !domain.IsKind(err, domain.ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not run on blank context, got %d calls", generator.calls)
	}
}

func TestGenerateQuestionFromContextEmbedsRetrievedPassages(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	embedder := &fakeEmbedder{queryVector: []float32{1, 0}}
	index := &fakeIndex{count: 2, hits: []domain.ScoredChunk{
		{DocumentID: "a", Text: "Linear equations have one variable.", Score: 0.9},
		{DocumentID: "b", Text: "Slope measures steepness.", Score: 0.8},
	}}
	retriever := NewRetriever(embedder, index, RetrieverConfig{TopK: 5})
	uc := NewGenerateQuestionUseCase(retriever, generator, nil, nil, 0)

	question, err := uc.GenerateQuestionFromContext(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if err != nil {
		t.Fatalf("GenerateQuestionFromContext() error = %v", err)
	}
	if question == nil {
		t.Fatalf("expected a question")
	}
	if len(generator.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(generator.prompts))
	}
	prompt := generator.prompts[0]
	if !strings.Contains(prompt, "Linear equations have one variable.") ||
		!strings.Contains(prompt, "Slope measures steepness.") {
		t.Fatalf("retrieved passages missing from prompt:\n%s", prompt)
	}
}

func TestGenerateQuestionFromContextReportsPassageCount(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	embedder := &fakeEmbedder{queryVector: []float32{1, 0}}
	index := &fakeIndex{count: 2, hits: []domain.ScoredChunk{
		{DocumentID: "a", Text: "Linear equations have one variable.", Score: 0.9},
		{DocumentID: "b", Text: "Slope measures steepness.", Score: 0.8},
	}}
	retriever := NewRetriever(embedder, index, RetrieverConfig{TopK: 5})
	uc := NewGenerateQuestionUseCase(retriever, generator, nil, nil, 0)

	var observed []int
	uc.OnRetrieval(func(passages int) {
		observed = append(observed, passages)
	})

	if _, err := uc.GenerateQuestionFromContext(context.Background(), domain.GenerationParams{Topic: "Algebra"}); err != nil {
		t.Fatalf("GenerateQuestionFromContext() error = %v", err)
	}
	if len(observed) != 1 || observed[0] != 2 {
		t.Fatalf("observed = %v, want [2]", observed)
	}

	index.hits = []domain.ScoredChunk{{DocumentID: "a", Text: "  ", Score: 0.9}}
	_, err := uc.GenerateQuestionFromContext(context.Background(), domain.GenerationParams{Topic: "Algebra"})
	if !domain.IsKind(err, domain.ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	if len(observed) != 2 || observed[1] != 0 {
		t.Fatalf("observed = %v, want blank retrieval reported as 0", observed)
	}

	if _, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{Topic: "Algebra"}); err != nil {
		t.Fatalf("GenerateQuestion() error = %v", err)
	}
	if len(observed) != 2 {
		t.Fatalf("topic-only generation must not report retrieval: %v", observed)
	}
}

func TestGenerateQuestionFillsKnowledgeLevelFromSession(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"user-1": {
			UserID:         "user-1",
			KnowledgeLevel: domain.KnowledgeLevel{"Math: Algebra": "beginner"},
		},
	}}
	uc := NewGenerateQuestionUseCase(nil, generator, sessions, &fakeProfileStore{}, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{
		Topic:  "Algebra",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("GenerateQuestion() error = %v", err)
	}
	if !strings.Contains(generator.prompts[0], "Math: Algebra: beginner") {
		t.Fatalf("session knowledge level missing from prompt:\n%s", generator.prompts[0])
	}
}

func TestGenerateQuestionFallsBackToProfileKnowledgeLevel(t *testing.T) {
	generator := &fakeGenerator{response: generatedQuestionJSON}
	profiles := &fakeProfileStore{profiles: map[string]*domain.UserProfile{
		"user-1": {KnowledgeLevel: domain.KnowledgeLevel{"Reading": "advanced"}},
	}}
	uc := NewGenerateQuestionUseCase(nil, generator, &fakeSessionStore{}, profiles, 0)

	_, err := uc.GenerateQuestion(context.Background(), domain.GenerationParams{
		Topic:  "Reading",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("GenerateQuestion() error = %v", err)
	}
	if !strings.Contains(generator.prompts[0], "Reading: advanced") {
		t.Fatalf("profile knowledge level missing from prompt:\n%s", generator.prompts[0])
	}
}
