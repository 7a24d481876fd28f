package domain

import "time"

// QuestionAttempt is one recorded answer to a practice question.
type QuestionAttempt struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	QuestionText     string    `json:"question_text"`
	Topic            string    `json:"topic"`
	Difficulty       string    `json:"difficulty"`
	UserAnswer       string    `json:"user_answer"`
	CorrectAnswer    string    `json:"correct_answer"`
	IsCorrect        bool      `json:"is_correct"`
	TimeTakenSeconds int       `json:"time_taken_seconds,omitempty"`
	CreatedAt        time.Time `json:"timestamp"`
}

// TopicPerformance aggregates attempt outcomes for one topic.
type TopicPerformance struct {
	Topic     string `json:"topic"`
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
}

// PerformanceSummary groups topic performance into the three SAT sections.
// Topics that match no section land in Other.
type PerformanceSummary struct {
	Math    map[string]TopicPerformance `json:"math"`
	Reading map[string]TopicPerformance `json:"reading"`
	Writing map[string]TopicPerformance `json:"writing"`
	Other   map[string]TopicPerformance `json:"other,omitempty"`
}
