// Package httpadapter exposes the tutoring backend over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/ports"
	"github.com/avolkov/sat-prep-backend/internal/core/usecase"
	"github.com/avolkov/sat-prep-backend/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	questions   ports.QuestionService
	evaluator   ports.AnswerEvaluator
	planner     ports.StudyPlanner
	assessor    ports.KnowledgeAssessor
	performance *usecase.PerformanceSummaryUseCase
	attempts    ports.AttemptStore
	profiles    ports.ProfileStore
	ingestor    ports.DocumentIngestor
	repo        ports.DocumentRepository
	metrics     *metrics.HTTPServerMetrics
}

type RouterDeps struct {
	Questions   ports.QuestionService
	Evaluator   ports.AnswerEvaluator
	Planner     ports.StudyPlanner
	Assessor    ports.KnowledgeAssessor
	Performance *usecase.PerformanceSummaryUseCase
	Attempts    ports.AttemptStore
	Profiles    ports.ProfileStore
	Ingestor    ports.DocumentIngestor
	Repo        ports.DocumentRepository
	Metrics     *metrics.HTTPServerMetrics
}

func NewRouter(deps RouterDeps) *Router {
	return &Router{
		questions:   deps.Questions,
		evaluator:   deps.Evaluator,
		planner:     deps.Planner,
		assessor:    deps.Assessor,
		performance: deps.Performance,
		attempts:    deps.Attempts,
		profiles:    deps.Profiles,
		ingestor:    deps.Ingestor,
		repo:        deps.Repo,
		metrics:     deps.Metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/generate_question", rt.generateQuestion)
	mux.HandleFunc("/generate_question_from_db", rt.generateQuestionFromDB)
	mux.HandleFunc("/evaluate_answer", rt.evaluateAnswer)
	mux.HandleFunc("/study_plan", rt.studyPlan)
	mux.HandleFunc("/assess_knowledge", rt.assessKnowledge)
	mux.HandleFunc("/save_attempt", rt.saveAttempt)
	mux.HandleFunc("/get_performance_summary", rt.performanceSummary)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type generateQuestionRequest struct {
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	QuestionType string `json:"question_type"`
	UserID       string `json:"user_id"`
}

func (req generateQuestionRequest) params() domain.GenerationParams {
	return domain.GenerationParams{
		Topic:        strings.TrimSpace(req.Topic),
		Difficulty:   domain.Difficulty(req.Difficulty),
		QuestionType: domain.QuestionType(req.QuestionType),
		UserID:       strings.TrimSpace(req.UserID),
	}
}

func (rt *Router) generateQuestion(w http.ResponseWriter, r *http.Request) {
	rt.handleGenerate(w, r, "generate_question", rt.questions.GenerateQuestion)
}

func (rt *Router) generateQuestionFromDB(w http.ResponseWriter, r *http.Request) {
	rt.handleGenerate(w, r, "generate_question_from_db", rt.questions.GenerateQuestionFromContext)
}

func (rt *Router) handleGenerate(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	generate func(ctx context.Context, params domain.GenerationParams) (*domain.Question, error),
) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req generateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	question, err := generate(r.Context(), req.params())
	if err != nil {
		rt.recordGeneration(endpoint, "error", start)
		rt.recordParseFailure(endpoint, err)
		rt.writeError(w, r, err)
		return
	}

	rt.recordGeneration(endpoint, "success", start)
	writeJSON(w, http.StatusOK, map[string]any{"question": question})
}

func (rt *Router) evaluateAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		QuestionText      string                   `json:"question_text"`
		UserAnswer        string                   `json:"user_answer"`
		CorrectAnswerInfo domain.CorrectAnswerInfo `json:"correct_answer_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	feedback, err := rt.evaluator.Evaluate(r.Context(), req.QuestionText, req.UserAnswer, req.CorrectAnswerInfo)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": feedback})
}

func (rt *Router) studyPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	summary, err := rt.performance.Summary(r.Context(), req.UserID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	profile := domain.UserProfile{}
	if rt.profiles != nil {
		stored, err := rt.profiles.GetProfile(r.Context(), req.UserID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		profile = *stored
	}

	plan, err := rt.planner.Plan(r.Context(), *summary, profile)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"study_plan": plan})
}

func (rt *Router) assessKnowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserID    string `json:"user_id"`
		UserInput string `json:"user_input"`
		TopicArea string `json:"topic_area"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	level, err := rt.assessor.Assess(r.Context(), req.UserID, req.UserInput, req.TopicArea)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAssessment(serviceName)
	}
	writeJSON(w, http.StatusOK, map[string]any{"knowledge_level": level})
}

func (rt *Router) saveAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var attempt domain.QuestionAttempt
	if err := json.NewDecoder(r.Body).Decode(&attempt); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if attempt.UserID == "" || attempt.QuestionText == "" || attempt.Topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id, question_text and topic are required"})
		return
	}
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	if err := rt.attempts.SaveAttempt(r.Context(), &attempt); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAttemptSaved(serviceName, attempt.IsCorrect)
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (rt *Router) performanceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	summary, err := rt.performance.Summary(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(err))
}

func (rt *Router) recordGeneration(endpoint, status string, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordGeneration(serviceName, endpoint, status, time.Since(start))
}

func (rt *Router) recordParseFailure(endpoint string, err error) {
	if rt.metrics == nil {
		return
	}
	if parseErr, ok := domain.AsParseError(err); ok {
		rt.metrics.RecordParseFailure(serviceName, endpoint, string(parseErr.Kind))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
