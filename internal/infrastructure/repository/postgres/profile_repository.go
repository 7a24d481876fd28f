package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) SaveKnowledgeLevel(ctx context.Context, userID string, level domain.KnowledgeLevel) error {
	levelJSON, err := json.Marshal(level)
	if err != nil {
		return fmt.Errorf("marshal knowledge level: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, knowledge_level, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET knowledge_level = EXCLUDED.knowledge_level, updated_at = EXCLUDED.updated_at
`, userID, levelJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert knowledge level: %w", err)
	}
	return nil
}

// GetProfile returns an empty profile for unknown users so that callers can
// merge defaults without a not-found branch.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT knowledge_level, learning_goals, learning_style, preferences
FROM profiles
WHERE user_id = $1
`, userID)

	var levelRaw, goalsRaw, prefsRaw []byte
	var style sql.NullString

	err := row.Scan(&levelRaw, &goalsRaw, &style, &prefsRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.UserProfile{}, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	var profile domain.UserProfile
	if len(levelRaw) > 0 {
		if err := json.Unmarshal(levelRaw, &profile.KnowledgeLevel); err != nil {
			return nil, fmt.Errorf("unmarshal knowledge level: %w", err)
		}
	}
	if len(goalsRaw) > 0 {
		if err := json.Unmarshal(goalsRaw, &profile.LearningGoals); err != nil {
			return nil, fmt.Errorf("unmarshal learning goals: %w", err)
		}
	}
	if len(prefsRaw) > 0 {
		if err := json.Unmarshal(prefsRaw, &profile.Preferences); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	profile.LearningStyle = style.String
	return &profile, nil
}
