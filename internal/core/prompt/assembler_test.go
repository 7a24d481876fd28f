package prompt

import (
	"strings"
	"testing"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

func baseParams() domain.GenerationParams {
	return domain.GenerationParams{
		Topic:        "Algebra",
		Difficulty:   domain.DifficultyMedium,
		QuestionType: domain.QuestionTypeMultipleChoice,
	}
}

func TestBuildQuestionRequestIsDeterministic(t *testing.T) {
	params := baseParams()
	params.KnowledgeLevel = domain.KnowledgeLevel{
		"Math: Algebra":    "beginner",
		"Reading":          "advanced",
		"Writing: Grammar": "intermediate",
	}

	first := BuildQuestionRequest(params)
	for i := 0; i < 20; i++ {
		if got := BuildQuestionRequest(params); got != first {
			t.Fatalf("request differs between calls")
		}
	}
}

func TestBuildQuestionRequestMentionsInputs(t *testing.T) {
	request := BuildQuestionRequest(baseParams())

	for _, want := range []string{"medium", "multiple_choice", "Algebra"} {
		if !strings.Contains(request, want) {
			t.Fatalf("request missing %q:\n%s", want, request)
		}
	}
	if !strings.Contains(request, `"passage"`) {
		t.Fatalf("request missing output contract")
	}
	if !strings.Contains(request, "exactly 4 strings") {
		t.Fatalf("request missing option count constraint")
	}
}

func TestBuildQuestionRequestReadingComprehensionAuthorsPassage(t *testing.T) {
	params := baseParams()
	params.QuestionType = domain.QuestionTypeReadingComprehension

	request := BuildQuestionRequest(params)
	if !strings.Contains(request, "Author a short passage") {
		t.Fatalf("reading_comprehension request should ask for a passage:\n%s", request)
	}
}

func TestBuildQuestionRequestKnowledgeDirectiveSorted(t *testing.T) {
	params := baseParams()
	params.KnowledgeLevel = domain.KnowledgeLevel{
		"Writing": "advanced",
		"Math":    "beginner",
		"Reading": "intermediate",
	}

	request := BuildQuestionRequest(params)
	mathIdx := strings.Index(request, "Math: beginner")
	readingIdx := strings.Index(request, "Reading: intermediate")
	writingIdx := strings.Index(request, "Writing: advanced")
	if mathIdx < 0 || readingIdx < 0 || writingIdx < 0 {
		t.Fatalf("knowledge directive missing entries:\n%s", request)
	}
	if !(mathIdx < readingIdx && readingIdx < writingIdx) {
		t.Fatalf("subjects not in sorted order")
	}
}

func TestBuildQuestionFromContextRequestEmbedsContext(t *testing.T) {
	request := BuildQuestionFromContextRequest(baseParams(), "The mitochondria is the powerhouse of the cell.")

	beginIdx := strings.Index(request, "---BEGIN CONTEXT---")
	endIdx := strings.Index(request, "---END CONTEXT---")
	if beginIdx < 0 || endIdx < beginIdx {
		t.Fatalf("context markers missing or out of order:\n%s", request)
	}
	if !strings.Contains(request[beginIdx:endIdx], "powerhouse") {
		t.Fatalf("context text not embedded between markers")
	}
}

func TestBuildQuestionFromContextRequestReusesContextAsPassage(t *testing.T) {
	params := baseParams()
	params.QuestionType = domain.QuestionTypeReadingComprehension

	request := BuildQuestionFromContextRequest(params, "passage text")
	if !strings.Contains(request, "verbatim") {
		t.Fatalf("reading_comprehension grounded request should reuse the context:\n%s", request)
	}
}

func TestBuildEvaluationRequestIncludesAllParts(t *testing.T) {
	request := BuildEvaluationRequest(
		"What is 2+2?",
		"5",
		domain.CorrectAnswerInfo{Answer: "4", Explanation: "Basic addition."},
	)

	for _, want := range []string{"What is 2+2?", "Student's Answer: 5", "Correct Answer: 4", "Basic addition."} {
		if !strings.Contains(request, want) {
			t.Fatalf("request missing %q", want)
		}
	}
}

func TestBuildStudyPlanRequestDefaultsEmptyProfile(t *testing.T) {
	request := BuildStudyPlanRequest(domain.PerformanceSummary{}, domain.UserProfile{})

	if !strings.Contains(request, "Learning Goals: None specified.") {
		t.Fatalf("missing goals default:\n%s", request)
	}
	if !strings.Contains(request, "Current Knowledge Level: Not yet assessed.") {
		t.Fatalf("missing knowledge default")
	}
}

func TestBuildStudyPlanRequestIsDeterministic(t *testing.T) {
	performance := domain.PerformanceSummary{
		Math: map[string]domain.TopicPerformance{
			"Algebra":  {Topic: "Algebra", Correct: 3, Incorrect: 1},
			"Geometry": {Topic: "Geometry", Correct: 1, Incorrect: 4},
		},
	}
	profile := domain.UserProfile{
		KnowledgeLevel: domain.KnowledgeLevel{"Math": "beginner", "Reading": "advanced"},
		Preferences:    map[string]string{"pace": "fast", "format": "short"},
	}

	first := BuildStudyPlanRequest(performance, profile)
	for i := 0; i < 20; i++ {
		if got := BuildStudyPlanRequest(performance, profile); got != first {
			t.Fatalf("request differs between calls")
		}
	}
}

func TestBuildAssessmentRequestOptionalTopicArea(t *testing.T) {
	withTopic := BuildAssessmentRequest("user-1", "I struggle with algebra", "Math")
	if !strings.Contains(withTopic, "Specific Topic Area to Focus On: Math") {
		t.Fatalf("topic area missing:\n%s", withTopic)
	}

	without := BuildAssessmentRequest("user-1", "I struggle with algebra", "")
	if strings.Contains(without, "Specific Topic Area") {
		t.Fatalf("topic area line should be omitted when empty")
	}
}

func TestBuildSubjectTagRequestTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 10000)
	request := BuildSubjectTagRequest(long)
	if len(request) > 5000 {
		t.Fatalf("snippet not truncated, len = %d", len(request))
	}
}
