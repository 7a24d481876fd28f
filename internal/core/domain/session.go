package domain

import "time"

// Session caches per-user tutoring state between requests, most importantly
// the learner's assessed knowledge level. Sessions expire; the profile store
// remains the durable source.
type Session struct {
	UserID         string
	Persona        string
	KnowledgeLevel KnowledgeLevel
	CreatedAt      time.Time
	LastSeenAt     time.Time
}
