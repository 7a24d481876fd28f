package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
)

type fakeDocumentRepo struct {
	docs     map[string]*domain.SourceDocument
	statuses []domain.DocumentStatus
	lastErr  string
	tags     domain.SubjectTags
	chunks   int
	saved    bool
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc *domain.SourceDocument) error {
	if f.docs == nil {
		f.docs = map[string]*domain.SourceDocument{}
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.SourceDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", errors.New(id))
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	f.lastErr = errMessage
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (f *fakeDocumentRepo) SaveTags(_ context.Context, id string, tags domain.SubjectTags, chunkCount int) error {
	f.saved = true
	f.tags = tags
	f.chunks = chunkCount
	if doc, ok := f.docs[id]; ok {
		doc.Subject = tags.Subject
		doc.Topics = tags.Topics
		doc.Summary = tags.Summary
		doc.ChunkCount = chunkCount
	}
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ *domain.SourceDocument) (string, error) {
	return f.text, f.err
}

type fakeTagger struct {
	tags domain.SubjectTags
}

func (f *fakeTagger) Tag(_ context.Context, _ string) (domain.SubjectTags, error) {
	return f.tags, nil
}

type fakeChunker struct {
	size int
}

func (f *fakeChunker) Split(sourceID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}
	var out []domain.Chunk
	for offset := 0; offset < len(text); offset += f.size {
		end := offset + f.size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, domain.Chunk{SourceID: sourceID, Offset: offset, Text: text[offset:end]})
	}
	return out
}

type recordingIndex struct {
	fakeIndex
	indexedDoc    *domain.SourceDocument
	indexedChunks []domain.Chunk
}

func (r *recordingIndex) IndexChunks(_ context.Context, doc *domain.SourceDocument, chunks []domain.Chunk, _ [][]float32) error {
	r.indexedDoc = doc
	r.indexedChunks = chunks
	return nil
}

func newProcessFixture(text string) (*ProcessDocumentUseCase, *fakeDocumentRepo, *recordingIndex) {
	repo := &fakeDocumentRepo{docs: map[string]*domain.SourceDocument{
		"doc-1": {ID: "doc-1", Filename: "algebra.txt", Status: domain.StatusUploaded},
	}}
	index := &recordingIndex{}
	uc := NewProcessDocumentUseCase(
		repo,
		&fakeExtractor{text: text},
		&fakeTagger{tags: domain.SubjectTags{Subject: "math", Topics: []string{"Algebra"}, Summary: "basics"}},
		&fakeChunker{size: 10},
		&fakeEmbedder{queryVector: []float32{1, 0}},
		index,
	)
	return uc, repo, index
}

func TestProcessByIDRunsFullPipeline(t *testing.T) {
	uc, repo, index := newProcessFixture(strings.Repeat("x", 25))

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	wantStatuses := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusReady}
	if len(repo.statuses) != len(wantStatuses) {
		t.Fatalf("statuses = %v", repo.statuses)
	}
	for i, want := range wantStatuses {
		if repo.statuses[i] != want {
			t.Fatalf("statuses[%d] = %q, want %q", i, repo.statuses[i], want)
		}
	}

	if !repo.saved || repo.chunks != 3 {
		t.Fatalf("tags saved = %v, chunk count = %d", repo.saved, repo.chunks)
	}
	if repo.tags.Subject != "math" {
		t.Fatalf("tags = %+v", repo.tags)
	}
	if len(index.indexedChunks) != 3 {
		t.Fatalf("indexed %d chunks, want 3", len(index.indexedChunks))
	}
	if index.indexedDoc.Subject != "math" {
		t.Fatalf("indexed doc not tagged: %+v", index.indexedDoc)
	}
}

func TestProcessByIDMarksFailedOnEmptyText(t *testing.T) {
	uc, repo, _ := newProcessFixture("")

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %q, want failed", last)
	}
	if repo.lastErr == "" {
		t.Fatalf("failure reason not recorded")
	}
}

func TestProcessByIDMarksFailedOnMissingDocument(t *testing.T) {
	uc, repo, _ := newProcessFixture("content")

	err := uc.ProcessByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %q, want failed", last)
	}
}

type fakeStorage struct {
	saved map[string]string
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentIngested(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

func TestUploadStoresAndPublishes(t *testing.T) {
	repo := &fakeDocumentRepo{docs: map[string]*domain.SourceDocument{}}
	storage := &fakeStorage{}
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "my notes.txt", "text/plain", strings.NewReader("algebra notes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %q", doc.Status)
	}
	if !strings.HasSuffix(doc.StoragePath, "my_notes.txt") {
		t.Fatalf("storage path = %q", doc.StoragePath)
	}
	if storage.saved[doc.StoragePath] != "algebra notes" {
		t.Fatalf("content not stored")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("published = %v", queue.published)
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatalf("metadata not created")
	}
}

func TestUploadPropagatesQueueFailure(t *testing.T) {
	repo := &fakeDocumentRepo{docs: map[string]*domain.SourceDocument{}}
	uc := NewIngestDocumentUseCase(repo, &fakeStorage{}, &fakeQueue{err: errors.New("nats down")})

	_, err := uc.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"my notes.txt":      "my_notes.txt",
		"../../etc/passwd":  "passwd",
		"weird$chars%.pdf":  "weird_chars_.pdf",
		"":                  "document.bin",
		"résumé.txt":        "r_sum_.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
