package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// SourceDocument is one ingested piece of study material.
type SourceDocument struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Subject     string         `json:"subject,omitempty"`
	Topics      []string       `json:"topics,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	ChunkCount  int            `json:"chunk_count,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SubjectTags is the LLM's classification of ingested material into SAT
// sections and topics.
type SubjectTags struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
	Summary string   `json:"summary"`
}
