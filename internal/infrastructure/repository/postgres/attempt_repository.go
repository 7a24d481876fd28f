package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt *domain.QuestionAttempt) error {
	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO attempts (
	id, user_id, question_text, topic, difficulty, user_answer, correct_answer, is_correct, time_taken_seconds, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		attempt.ID, attempt.UserID, attempt.QuestionText, attempt.Topic, attempt.Difficulty,
		attempt.UserAnswer, attempt.CorrectAnswer, attempt.IsCorrect, attempt.TimeTakenSeconds, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// PerformanceByTopic aggregates a learner's attempts in SQL rather than
// loading attempt rows into memory.
func (r *AttemptRepository) PerformanceByTopic(ctx context.Context, userID string) ([]domain.TopicPerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT topic,
	COUNT(*) FILTER (WHERE is_correct) AS correct,
	COUNT(*) FILTER (WHERE NOT is_correct) AS incorrect
FROM attempts
WHERE user_id = $1
GROUP BY topic
ORDER BY topic
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	var out []domain.TopicPerformance
	for rows.Next() {
		var perf domain.TopicPerformance
		if err := rows.Scan(&perf.Topic, &perf.Correct, &perf.Incorrect); err != nil {
			return nil, fmt.Errorf("scan performance row: %w", err)
		}
		out = append(out, perf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance rows: %w", err)
	}
	return out, nil
}
