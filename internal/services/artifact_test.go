package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type stubArtifactRepo struct {
	row           *types.BookArtifact
	statusHistory []string
}

func (s *stubArtifactRepo) GetByBookAndKind(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string) (*types.BookArtifact, error) {
	if s.row == nil || s.row.BookID != bookID || s.row.Kind != kind {
		return nil, nil
	}
	cp := *s.row
	return &cp, nil
}

func (s *stubArtifactRepo) Create(ctx context.Context, tx *gorm.DB, artifact *types.BookArtifact) (*types.BookArtifact, error) {
	if s.row != nil {
		return nil, fmt.Errorf("duplicate artifact create")
	}
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}
	cp := *artifact
	s.row = &cp
	s.statusHistory = append(s.statusHistory, artifact.Status)
	return artifact, nil
}

func (s *stubArtifactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if s.row == nil || s.row.ID != id {
		return fmt.Errorf("artifact %s not found", id)
	}
	if v, ok := fields["status"].(string); ok {
		s.row.Status = v
		s.statusHistory = append(s.statusHistory, v)
	}
	if v, ok := fields["content"].(string); ok {
		s.row.Content = v
	}
	if v, ok := fields["error_message"].(string); ok {
		s.row.ErrorMessage = v
	}
	if v, ok := fields["model_name"].(string); ok {
		s.row.ModelName = v
	}
	if v, ok := fields["prompt_version"].(string); ok {
		s.row.PromptVersion = v
	}
	return nil
}

type stubBookRepo struct {
	books map[uuid.UUID]*types.Book
}

func (s *stubBookRepo) Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error) {
	return book, nil
}

func (s *stubBookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error) {
	return s.books[id], nil
}

func (s *stubBookRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Book, error) {
	return nil, nil
}

func (s *stubBookRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error) {
	return nil, nil
}

type stubBookFileRepo struct {
	file *types.BookFile
}

func (s *stubBookFileRepo) GetByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookFile, error) {
	if s.file == nil || s.file.BookID != bookID {
		return nil, nil
	}
	return s.file, nil
}

type stubReviewRepo struct {
	reviews []*types.Review
}

func (s *stubReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error) {
	return review, nil
}

func (s *stubReviewRepo) GetByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Review, error) {
	return nil, nil
}

func (s *stubReviewRepo) ListForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Review, error) {
	var out []*types.Review
	for _, r := range s.reviews {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubReviewRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Review, error) {
	return s.reviews, nil
}

type stubStorage struct {
	objects map[string][]byte
}

func (s *stubStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return data, nil
}

func (s *stubStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	return nil
}

func (s *stubStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) ModelName() string { return "test-model" }

func newArtifactFixture(t *testing.T) (*artifactService, *stubArtifactRepo, *stubBookRepo, *stubBookFileRepo, *stubReviewRepo, *stubStorage, *stubLLM) {
	t.Helper()
	artifacts := &stubArtifactRepo{}
	books := &stubBookRepo{books: map[uuid.UUID]*types.Book{}}
	files := &stubBookFileRepo{}
	reviews := &stubReviewRepo{}
	storage := &stubStorage{objects: map[string][]byte{}}
	llm := &stubLLM{response: "generated text"}
	svc := &artifactService{
		log:       testLogger(t).With("service", "ArtifactService"),
		artifacts: artifacts,
		books:     books,
		bookFiles: files,
		reviews:   reviews,
		storage:   storage,
		llm:       llm,
	}
	return svc, artifacts, books, files, reviews, storage, llm
}

func TestRunSummaryFirstRunCompletes(t *testing.T) {
	svc, artifacts, books, files, _, storage, _ := newArtifactFixture(t)
	bookID := uuid.New()
	books.books[bookID] = &types.Book{ID: bookID, Title: "Dune", Author: "Frank Herbert"}
	files.file = &types.BookFile{BookID: bookID, ObjectKey: "dune.txt", OriginalFilename: "dune.txt", MimeType: "text/plain"}
	storage.objects["dune.txt"] = []byte("A desert planet and its spice.")

	got, err := svc.RunSummary(context.Background(), nil, bookID)
	if err != nil {
		t.Fatalf("RunSummary: %v", err)
	}
	if got.Status != types.ArtifactStatusCompleted {
		t.Fatalf("status=%s, want completed", got.Status)
	}
	if got.Content != "generated text" {
		t.Fatalf("content=%q", got.Content)
	}
	if got.ModelName != "test-model" || got.PromptVersion != PromptVersion {
		t.Fatalf("provenance not stamped: model=%q version=%q", got.ModelName, got.PromptVersion)
	}
	// First runs never pass through a visible running state.
	for _, st := range artifacts.statusHistory {
		if st == types.ArtifactStatusRunning {
			t.Fatalf("first run exposed running state: %v", artifacts.statusHistory)
		}
	}
}

func TestRunSummaryMissingFileFailsArtifactNotJob(t *testing.T) {
	svc, artifacts, books, _, _, _, llm := newArtifactFixture(t)
	bookID := uuid.New()
	books.books[bookID] = &types.Book{ID: bookID, Title: "Dune", Author: "Frank Herbert"}

	got, err := svc.RunSummary(context.Background(), nil, bookID)
	if err != nil {
		t.Fatalf("generation failure must not surface as an error: %v", err)
	}
	if got.Status != types.ArtifactStatusFailed {
		t.Fatalf("status=%s, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected an error message on the artifact")
	}
	if llm.calls != 0 {
		t.Fatalf("llm called %d times despite missing file", llm.calls)
	}
	if artifacts.row == nil {
		t.Fatal("artifact row was not persisted")
	}
}

func TestRunSummaryRetryClearsErrorAndPassesThroughRunning(t *testing.T) {
	svc, artifacts, books, files, _, storage, _ := newArtifactFixture(t)
	bookID := uuid.New()
	books.books[bookID] = &types.Book{ID: bookID, Title: "Dune", Author: "Frank Herbert"}

	// First run fails: no file yet.
	if _, err := svc.RunSummary(context.Background(), nil, bookID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstID := artifacts.row.ID

	// Upload the file and retry.
	files.file = &types.BookFile{BookID: bookID, ObjectKey: "dune.txt", OriginalFilename: "dune.txt", MimeType: "text/plain"}
	storage.objects["dune.txt"] = []byte("A desert planet and its spice.")
	got, err := svc.RunSummary(context.Background(), nil, bookID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.ID != firstID {
		t.Fatal("retry created a second artifact row")
	}
	if got.Status != types.ArtifactStatusCompleted {
		t.Fatalf("status=%s, want completed", got.Status)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("stale error not cleared: %q", got.ErrorMessage)
	}

	sawRunning := false
	for _, st := range artifacts.statusHistory {
		if st == types.ArtifactStatusRunning {
			sawRunning = true
		}
	}
	if !sawRunning {
		t.Fatalf("rerun skipped the running state: %v", artifacts.statusHistory)
	}
}

func TestRunConsensusRequiresReviews(t *testing.T) {
	svc, _, books, _, reviews, _, llm := newArtifactFixture(t)
	bookID := uuid.New()
	books.books[bookID] = &types.Book{ID: bookID, Title: "Dune", Author: "Frank Herbert"}

	got, err := svc.RunConsensus(context.Background(), nil, bookID)
	if err != nil {
		t.Fatalf("RunConsensus: %v", err)
	}
	if got.Status != types.ArtifactStatusFailed {
		t.Fatalf("status=%s, want failed", got.Status)
	}
	if llm.calls != 0 {
		t.Fatal("llm called without reviews")
	}

	reviews.reviews = []*types.Review{
		{ID: uuid.New(), UserID: uuid.New(), BookID: bookID, Rating: 5, ReviewText: "Loved it."},
		{ID: uuid.New(), UserID: uuid.New(), BookID: bookID, Rating: 2, ReviewText: "Too slow."},
	}
	got, err = svc.RunConsensus(context.Background(), nil, bookID)
	if err != nil {
		t.Fatalf("RunConsensus with reviews: %v", err)
	}
	if got.Status != types.ArtifactStatusCompleted {
		t.Fatalf("status=%s, want completed", got.Status)
	}
}

func TestRunSummaryUnknownBook(t *testing.T) {
	svc, _, _, _, _, _, _ := newArtifactFixture(t)
	if _, err := svc.RunSummary(context.Background(), nil, uuid.New()); err == nil {
		t.Fatal("expected error for unknown book")
	}
}
