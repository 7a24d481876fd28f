// Package bootstrap wires configuration, infrastructure and use cases into a
// runnable application for both the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/config"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/usecase"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/chunking"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/extractor"
	pdfextractor "github.com/avolkov/sat-prep-backend/internal/infrastructure/extractor/pdf"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/extractor/plaintext"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/llm/gemini"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/llm/ollama"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/queue/nats"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/repository/postgres"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/resilience"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/session"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/storage/localfs"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/vector/chromem"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Attempts  ports.AttemptStore
	Profiles  ports.ProfileStore
	Index     ports.VectorIndex
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	Questions   *usecase.GenerateQuestionUseCase
	Evaluator   ports.AnswerEvaluator
	Planner     ports.StudyPlanner
	Assessor    ports.KnowledgeAssessor
	Performance *usecase.PerformanceSummaryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	attempts := postgres.NewAttemptRepository(db)
	profiles := postgres.NewProfileRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueExec := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: queueExec,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedExec := resilience.NewExecutor(resilience.DefaultConfig())
	genExec := resilience.NewExecutor(resilience.GenerationConfig())

	var (
		embedder  ports.Embedder
		generator ports.TextGenerator
		tagger    ports.SubjectTagger
	)
	switch cfg.LLMProvider {
	case "gemini":
		client, err := gemini.New(
			cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel,
			cfg.GeminiRequestsPerMinute, embedExec, genExec,
		)
		if err != nil {
			return nil, err
		}
		embedder = gemini.NewEmbedder(client)
		generator = gemini.NewGenerator(client)
		tagger = gemini.NewTagger(client)
	default:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, embedExec, genExec)
		embedder = ollama.NewEmbedder(client)
		generator = ollama.NewGenerator(client)
		tagger = ollama.NewTagger(client)
	}

	index, err := chromem.New(cfg.VectorDBPath, cfg.VectorCollection, embedder)
	if err != nil {
		return nil, fmt.Errorf("init vector index: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	texts := extractor.NewRouter(pdfextractor.NewExtractor(storage), plaintext.NewExtractor(storage))

	sessions := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	retriever := usecase.NewRetriever(embedder, index, usecase.RetrieverConfig{
		TopK:          cfg.RetrievalTopK,
		Policy:        usecase.RankingPolicy(cfg.RetrievalPolicy),
		Candidates:    cfg.RetrievalCandidates,
		MMRLambda:     cfg.RetrievalMMRLambda,
		MinSimilarity: cfg.RetrievalMinSimilarity,
	})

	generateTimeout := time.Duration(cfg.GenerateTimeoutSeconds) * time.Second

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, texts, tagger, chunker, embedder, index)
	questionUC := usecase.NewGenerateQuestionUseCase(retriever, generator, sessions, profiles, generateTimeout)
	evaluateUC := usecase.NewEvaluateAnswerUseCase(generator, generateTimeout)
	planUC := usecase.NewStudyPlanUseCase(generator, generateTimeout)
	assessUC := usecase.NewAssessKnowledgeUseCase(generator, profiles, sessions, generateTimeout)
	performanceUC := usecase.NewPerformanceSummaryUseCase(attempts)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		Attempts:  attempts,
		Profiles:  profiles,
		Index:     index,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		Questions:   questionUC,
		Evaluator:   evaluateUC,
		Planner:     planUC,
		Assessor:    assessUC,
		Performance: performanceUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
