package domain

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

type QuestionType string

const (
	QuestionTypeMultipleChoice       QuestionType = "multiple_choice"
	QuestionTypeReadingComprehension QuestionType = "reading_comprehension"
	QuestionTypeMath                 QuestionType = "math"
)

// OptionCount is fixed by the SAT multiple-choice format.
const OptionCount = 4

type CorrectAnswerInfo struct {
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// Question is the validated output contract of the generation pipeline.
// Passage is non-nil iff the question type is reading_comprehension.
type Question struct {
	Passage           *string           `json:"passage"`
	QuestionText      string            `json:"question_text"`
	Options           []string          `json:"options"`
	CorrectAnswerInfo CorrectAnswerInfo `json:"correct_answer_info"`
}

// KnowledgeLevel maps a subject-area label (e.g. "Math: Algebra") to a
// proficiency label (beginner, intermediate, advanced, needs practice).
type KnowledgeLevel map[string]string

// GenerationParams are the caller-supplied inputs of one generation request.
type GenerationParams struct {
	Topic          string
	Difficulty     Difficulty
	QuestionType   QuestionType
	UserID         string
	KnowledgeLevel KnowledgeLevel
}

// AnswerFeedback is the structured result of grading a student answer.
type AnswerFeedback struct {
	IsCorrect                     bool     `json:"is_correct"`
	FeedbackSummary               string   `json:"feedback_summary"`
	PersonalFeedback              string   `json:"personal_feedback"`
	ExplanationComparison         string   `json:"explanation_comparison"`
	CommonMisconceptions          string   `json:"common_misconceptions"`
	CorrectExplanationReiteration []string `json:"correct_explanation_reiteration"`
	NextStepsSuggestion           []string `json:"next_steps_suggestion"`
}

type RecommendedTopic struct {
	TopicName              string   `json:"topic_name"`
	Reason                 string   `json:"reason"`
	SuggestedResourceTypes []string `json:"suggested_resource_types"`
	TargetDifficulty       string   `json:"target_difficulty"`
}

type StudyPlan struct {
	Summary             string             `json:"summary"`
	RecommendedTopics   []RecommendedTopic `json:"recommended_topics"`
	PracticeStrategies  []string           `json:"practice_strategies"`
	StudyTips           []string           `json:"study_tips"`
	MotivationalMessage string             `json:"motivational_message"`
}

// UserProfile carries the learner attributes the study planner consumes.
type UserProfile struct {
	LearningGoals  []string          `json:"learning_goals,omitempty"`
	LearningStyle  string            `json:"learning_style_preference,omitempty"`
	KnowledgeLevel KnowledgeLevel    `json:"current_knowledge_level,omitempty"`
	Preferences    map[string]string `json:"preferences,omitempty"`
}
