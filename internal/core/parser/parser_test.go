package parser

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

const validQuestionJSON = `{
	"passage": null,
	"question_text": "What is the value of x in 2x + 4 = 10?",
	"options": ["1", "2", "3", "4"],
	"correct_answer_info": {
		"answer": "3",
		"explanation": "Subtract 4 from both sides, then divide by 2."
	}
}`

func TestParseQuestionAcceptsFencedJSON(t *testing.T) {
	raw := "```json\n" + validQuestionJSON + "\n```"

	question, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}
	if question.QuestionText != "What is the value of x in 2x + 4 = 10?" {
		t.Fatalf("question_text = %q", question.QuestionText)
	}
	if len(question.Options) != 4 {
		t.Fatalf("options = %v", question.Options)
	}
	if question.CorrectAnswerInfo.Answer != "3" {
		t.Fatalf("answer = %q", question.CorrectAnswerInfo.Answer)
	}
	if question.Passage != nil {
		t.Fatalf("passage should be nil for multiple_choice, got %q", *question.Passage)
	}
}

func TestParseQuestionAcceptsBareJSON(t *testing.T) {
	if _, err := ParseQuestion(validQuestionJSON, domain.QuestionTypeMultipleChoice); err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}
}

func TestParseQuestionStripsControlChars(t *testing.T) {
	raw := strings.Replace(validQuestionJSON, "both sides", "both\x00 sides", 1)

	question, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}
	if strings.ContainsRune(question.CorrectAnswerInfo.Explanation, 0) {
		t.Fatalf("NUL byte survived: %q", question.CorrectAnswerInfo.Explanation)
	}
}

func TestParseQuestionMalformedJSONKeepsRaw(t *testing.T) {
	raw := `{"question_text": "unterminated`

	_, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	parseErr, ok := domain.AsParseError(err)
	if !ok {
		t.Fatalf("expected *domain.ParseError, got %v", err)
	}
	if parseErr.Kind != domain.ParseErrorMalformedJSON {
		t.Fatalf("kind = %q", parseErr.Kind)
	}
	if parseErr.Raw != raw {
		t.Fatalf("raw output not preserved")
	}
}

func TestParseQuestionRejectsWrongOptionCount(t *testing.T) {
	raw := strings.Replace(validQuestionJSON, `["1", "2", "3", "4"]`, `["1", "2", "3"]`, 1)

	_, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	parseErr, ok := domain.AsParseError(err)
	if !ok || parseErr.Kind != domain.ParseErrorSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestParseQuestionRequiresPassageForReadingComprehension(t *testing.T) {
	_, err := ParseQuestion(validQuestionJSON, domain.QuestionTypeReadingComprehension)
	parseErr, ok := domain.AsParseError(err)
	if !ok || parseErr.Kind != domain.ParseErrorSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if !strings.Contains(parseErr.Detail, "passage") {
		t.Fatalf("detail = %q", parseErr.Detail)
	}
}

func TestParseQuestionKeepsPassageForReadingComprehension(t *testing.T) {
	raw := strings.Replace(validQuestionJSON, `"passage": null`, `"passage": "The tide rolled in at dusk."`, 1)

	question, err := ParseQuestion(raw, domain.QuestionTypeReadingComprehension)
	if err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}
	if question.Passage == nil || *question.Passage != "The tide rolled in at dusk." {
		t.Fatalf("passage = %v", question.Passage)
	}
}

func TestParseQuestionDropsUnexpectedPassage(t *testing.T) {
	raw := strings.Replace(validQuestionJSON, `"passage": null`, `"passage": "stray passage"`, 1)

	question, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}
	if question.Passage != nil {
		t.Fatalf("passage should be dropped for multiple_choice, got %q", *question.Passage)
	}
}

func TestParseQuestionRejectsEmptyOption(t *testing.T) {
	raw := strings.Replace(validQuestionJSON, `"2"`, `" "`, 1)

	_, err := ParseQuestion(raw, domain.QuestionTypeMultipleChoice)
	parseErr, ok := domain.AsParseError(err)
	if !ok || parseErr.Kind != domain.ParseErrorSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestStripFenceVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"tagged fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"untagged fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"one line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFence(tc.in); got != tc.want {
				t.Fatalf("StripFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripFenceIdempotent(t *testing.T) {
	raw := "```json\n" + validQuestionJSON + "\n```"
	once := StripFence(raw)
	if twice := StripFence(once); twice != once {
		t.Fatalf("StripFence is not idempotent")
	}
}

func TestCleanControlCharsKeepsWhitespace(t *testing.T) {
	in := "line1\nline2\tend\r\x00\x0b\x1f"
	got := CleanControlChars(in)
	want := "line1\nline2\tend\r"
	if got != want {
		t.Fatalf("CleanControlChars = %q, want %q", got, want)
	}
}

func TestParseFeedback(t *testing.T) {
	raw := "```json\n" + `{
		"is_correct": false,
		"feedback_summary": "Close, but the sign flipped.",
		"personal_feedback": "You handled the setup well.",
		"explanation_comparison": "Your explanation missed the division step.",
		"common_misconceptions": "Sign errors when moving terms.",
		"correct_explanation_reiteration": ["Subtract 4.", "Divide by 2."],
		"next_steps_suggestion": ["Practice two-step equations."]
	}` + "\n```"

	feedback, err := ParseFeedback(raw)
	if err != nil {
		t.Fatalf("ParseFeedback() error = %v", err)
	}
	if feedback.IsCorrect {
		t.Fatalf("is_correct should be false")
	}
	if len(feedback.NextStepsSuggestion) != 1 {
		t.Fatalf("next steps = %v", feedback.NextStepsSuggestion)
	}
}

func TestParseFeedbackRejectsMissingSummary(t *testing.T) {
	_, err := ParseFeedback(`{"is_correct": true}`)
	parseErr, ok := domain.AsParseError(err)
	if !ok || parseErr.Kind != domain.ParseErrorSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestParseKnowledgeLevel(t *testing.T) {
	level, err := ParseKnowledgeLevel(`{"Math: Algebra": "intermediate", "Reading": "beginner"}`)
	if err != nil {
		t.Fatalf("ParseKnowledgeLevel() error = %v", err)
	}
	if level["Math: Algebra"] != "intermediate" {
		t.Fatalf("level = %v", level)
	}
}

func TestParseKnowledgeLevelRejectsEmpty(t *testing.T) {
	_, err := ParseKnowledgeLevel(`{}`)
	parseErr, ok := domain.AsParseError(err)
	if !ok || parseErr.Kind != domain.ParseErrorSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestParseSubjectTags(t *testing.T) {
	tags, err := ParseSubjectTags(`{"subject": "Math", "topics": ["Algebra"], "summary": "algebra basics"}`)
	if err != nil {
		t.Fatalf("ParseSubjectTags() error = %v", err)
	}
	if tags.Subject != "Math" || len(tags.Topics) != 1 {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestParseSubjectTagsDefaultsTopics(t *testing.T) {
	tags, err := ParseSubjectTags(`{"subject": "Reading", "summary": ""}`)
	if err != nil {
		t.Fatalf("ParseSubjectTags() error = %v", err)
	}
	if tags.Topics == nil {
		t.Fatalf("topics should default to empty slice")
	}
}

func TestParseStudyPlan(t *testing.T) {
	raw := `{
		"summary": "Focus on algebra this week.",
		"recommended_topics": [{
			"topic_name": "Linear Equations",
			"reason": "Most missed topic.",
			"suggested_resource_types": ["practice sets"],
			"target_difficulty": "medium"
		}],
		"practice_strategies": ["Timed drills"],
		"study_tips": ["Review mistakes"],
		"motivational_message": "Keep going."
	}`

	plan, err := ParseStudyPlan(raw)
	if err != nil {
		t.Fatalf("ParseStudyPlan() error = %v", err)
	}
	if len(plan.RecommendedTopics) != 1 || plan.RecommendedTopics[0].TopicName != "Linear Equations" {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestParseQuestionRoundTrip(t *testing.T) {
	passage := "The tide rolled in at dusk, carrying the scent of salt."
	raw := `{
		"passage": "` + passage + `",
		"question_text": "What does the passage primarily convey?",
		"options": ["A storm", "An evening scene", "A harvest", "A journey"],
		"correct_answer_info": {
			"answer": "An evening scene",
			"explanation": "The passage describes dusk at the shore."
		}
	}`

	first, err := ParseQuestion(raw, domain.QuestionTypeReadingComprehension)
	if err != nil {
		t.Fatalf("ParseQuestion() error = %v", err)
	}

	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal parsed question: %v", err)
	}
	second, err := ParseQuestion("```json\n"+string(encoded)+"\n```", domain.QuestionTypeReadingComprehension)
	if err != nil {
		t.Fatalf("ParseQuestion() second pass error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed the question:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if second.Passage == nil || *second.Passage != passage {
		t.Fatalf("passage lost in round trip: %+v", second.Passage)
	}
}
