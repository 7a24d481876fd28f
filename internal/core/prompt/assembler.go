// Package prompt assembles generation requests. Assembly is deterministic:
// identical inputs always produce an identical request string, so prompts are
// testable without a model call.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

const questionContract = `Output must be a single JSON object inside one fenced code block tagged json.
Do not emit any text outside the fenced block.
The object must have exactly these fields:
  "passage": string or null (null unless the question type is reading_comprehension),
  "question_text": string,
  "options": array of exactly 4 strings,
  "correct_answer_info": {"answer": string, "explanation": string}.`

// BuildQuestionRequest assembles the topic-only generation request.
func BuildQuestionRequest(params domain.GenerationParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert SAT question generator.\n")
	fmt.Fprintf(&b, "Generate a %s difficulty SAT-style %s question on the topic of %s.\n\n",
		params.Difficulty, params.QuestionType, params.Topic)

	if params.QuestionType == domain.QuestionTypeReadingComprehension {
		b.WriteString("Author a short passage first and place it in the \"passage\" field. The question must be answerable from that passage alone.\n")
	} else {
		b.WriteString("Set \"passage\" to null.\n")
	}
	if params.QuestionType == domain.QuestionTypeMath {
		b.WriteString("Include all numbers and context needed to solve the problem.\n")
	}

	writeKnowledgeDirective(&b, params.KnowledgeLevel)

	b.WriteString("\n")
	b.WriteString(questionContract)
	return b.String()
}

// BuildQuestionFromContextRequest assembles the context-grounded generation
// request. Retrieved passages are already joined by the caller; on the
// reading-comprehension path the model reuses the supplied context verbatim
// as the passage rather than inventing one.
func BuildQuestionFromContextRequest(params domain.GenerationParams, contextText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert SAT question generator.\n")
	fmt.Fprintf(&b, "Create a %s difficulty SAT-style %s question based only on the following context:\n\n",
		params.Difficulty, params.QuestionType)
	b.WriteString("---BEGIN CONTEXT---\n")
	b.WriteString(contextText)
	b.WriteString("\n---END CONTEXT---\n\n")
	fmt.Fprintf(&b, "The question should be relevant to the topic of '%s'.\n", params.Topic)

	if params.QuestionType == domain.QuestionTypeReadingComprehension {
		b.WriteString("Use the provided context verbatim as the \"passage\" field. Do not author a new passage.\n")
	} else {
		b.WriteString("Set \"passage\" to null.\n")
	}

	writeKnowledgeDirective(&b, params.KnowledgeLevel)

	b.WriteString("\n")
	b.WriteString(questionContract)
	return b.String()
}

// writeKnowledgeDirective appends the difficulty-calibration hint. Subjects
// are emitted in sorted order so assembly stays deterministic; the directive
// is advisory text only, compliance is up to the model.
func writeKnowledgeDirective(b *strings.Builder, level domain.KnowledgeLevel) {
	if len(level) == 0 {
		return
	}

	subjects := make([]string, 0, len(level))
	for subject := range level {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	b.WriteString("Calibrate difficulty to the learner's recorded proficiency:\n")
	for _, subject := range subjects {
		fmt.Fprintf(b, "  %s: %s\n", subject, level[subject])
	}
}

// BuildEvaluationRequest assembles the answer-grading request.
func BuildEvaluationRequest(questionText, userAnswer string, correct domain.CorrectAnswerInfo) string {
	return fmt.Sprintf(`You are an expert SAT tutor.
Analyze the student's answer to the given SAT question.

SAT Question:
%s

Student's Answer: %s

Correct Answer: %s
Detailed Explanation for Correct Answer: %s

Output must be a single JSON object inside one fenced code block tagged json, with fields:
"is_correct" (boolean), "feedback_summary", "personal_feedback", "explanation_comparison",
"common_misconceptions" (strings), "correct_explanation_reiteration" and
"next_steps_suggestion" (arrays of strings, one step or suggestion per element).
Do not emit any text outside the fenced block.`,
		questionText, userAnswer, correct.Answer, correct.Explanation)
}

// BuildStudyPlanRequest assembles the study-plan request from performance
// data and the learner profile.
func BuildStudyPlanRequest(performance domain.PerformanceSummary, profile domain.UserProfile) string {
	perfJSON := marshalDeterministic(performance)

	goals := "None specified."
	if len(profile.LearningGoals) > 0 {
		goals = marshalDeterministic(profile.LearningGoals)
	}
	style := profile.LearningStyle
	if style == "" {
		style = "any"
	}
	knowledge := "Not yet assessed."
	if len(profile.KnowledgeLevel) > 0 {
		knowledge = marshalDeterministic(profile.KnowledgeLevel)
	}
	preferences := "None specified."
	if len(profile.Preferences) > 0 {
		preferences = marshalDeterministic(profile.Preferences)
	}

	return fmt.Sprintf(`You are an expert SAT study coach.
Generate a personalized SAT study plan based on the following student information.

--- User Performance Data (Recent Attempts) ---
%s

--- User Profile ---
Learning Goals: %s
Learning Style Preference: %s
Current Knowledge Level: %s
User Preferences: %s

--- Instructions ---
1. Identify strengths and weaknesses from the performance data and knowledge level.
2. Tailor the plan to the learning goals and preferred learning style.
3. Focus on topics marked 'needs practice' or with low accuracy.
4. Provide specific, actionable recommendations.

Output must be a single JSON object inside one fenced code block tagged json, with fields:
"summary" (string), "recommended_topics" (array of objects with "topic_name", "reason",
"suggested_resource_types" as array of strings, "target_difficulty"),
"practice_strategies", "study_tips" (arrays of strings), "motivational_message" (string).
Do not emit any text outside the fenced block.`,
		perfJSON, goals, style, knowledge, preferences)
}

// BuildAssessmentRequest assembles the knowledge-assessment request.
func BuildAssessmentRequest(userID, input, topicArea string) string {
	var b strings.Builder
	b.WriteString(`You are an expert SAT tutor assessing a student's current knowledge level.
The input may be a free-form self-description or a diagnostic quiz summary.
Infer proficiency in key SAT areas. Keys are broad SAT topic areas
(e.g. "Math: Algebra", "Reading: Main Idea", "Writing: Grammar"); values are one of:
"beginner", "intermediate", "advanced", "needs practice".
Omit topics that cannot be inferred.

`)
	fmt.Fprintf(&b, "User ID: %s\nUser Input: %s\n", userID, input)
	if topicArea != "" {
		fmt.Fprintf(&b, "Specific Topic Area to Focus On: %s\n", topicArea)
	}
	b.WriteString(`
Output must be a single JSON object of string keys to string values inside one
fenced code block tagged json. Do not emit any text outside the fenced block.`)
	return b.String()
}

// BuildSubjectTagRequest assembles the ingestion-time classification request.
func BuildSubjectTagRequest(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are classifying SAT study material.
Return a single JSON object inside one fenced code block tagged json, with fields:
"subject" (one of "math", "reading", "writing"), "topics" (array of strings),
"summary" (string, one or two sentences). Do not emit any text outside the fenced block.

Material:
` + snippet
}

// marshalDeterministic relies on encoding/json emitting map keys in sorted
// order, which keeps prompt assembly reproducible for map-valued inputs.
func marshalDeterministic(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
