package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/repos"
	"github.com/luminalib/luminalib-backend/internal/types"
)

// ArtifactService runs the AI artifact lifecycle for a book. Each (book, kind)
// pair owns one artifact row; a run moves it pending -> running -> completed
// or failed, and a rerun of a failed artifact moves it back through running.
// Generation failures land in the artifact row, never in the caller: a run
// returns an error only when the database itself misbehaves.
type ArtifactService interface {
	RunSummary(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookArtifact, error)
	RunConsensus(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookArtifact, error)
	GetStatus(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string) (*types.BookArtifact, error)
}

type artifactService struct {
	db        *gorm.DB
	log       *logger.Logger
	artifacts repos.ArtifactRepo
	books     repos.BookRepo
	bookFiles repos.BookFileRepo
	reviews   repos.ReviewRepo
	storage   StorageService
	llm       LLMClient
}

func NewArtifactService(
	db *gorm.DB,
	baseLog *logger.Logger,
	artifacts repos.ArtifactRepo,
	books repos.BookRepo,
	bookFiles repos.BookFileRepo,
	reviews repos.ReviewRepo,
	storage StorageService,
	llm LLMClient,
) ArtifactService {
	return &artifactService{
		db:        db,
		log:       baseLog.With("service", "ArtifactService"),
		artifacts: artifacts,
		books:     books,
		bookFiles: bookFiles,
		reviews:   reviews,
		storage:   storage,
		llm:       llm,
	}
}

func (s *artifactService) GetStatus(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string) (*types.BookArtifact, error) {
	return s.artifacts.GetByBookAndKind(ctx, tx, bookID, kind)
}

func (s *artifactService) RunSummary(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookArtifact, error) {
	return s.run(ctx, tx, bookID, types.ArtifactKindSummary, s.produceSummary)
}

func (s *artifactService) RunConsensus(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookArtifact, error) {
	return s.run(ctx, tx, bookID, types.ArtifactKindConsensus, s.produceConsensus)
}

type produceFunc func(ctx context.Context, tx *gorm.DB, book *types.Book) (string, error)

func (s *artifactService) run(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string, produce produceFunc) (*types.BookArtifact, error) {
	book, err := s.books.GetByID(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("book %s not found", bookID)
	}

	artifact, err := s.artifacts.GetByBookAndKind(ctx, tx, bookID, kind)
	if err != nil {
		return nil, err
	}
	rerun := artifact != nil
	if !rerun {
		artifact, err = s.artifacts.Create(ctx, tx, &types.BookArtifact{
			BookID: bookID,
			Kind:   kind,
			Status: types.ArtifactStatusPending,
		})
		if err != nil {
			return nil, err
		}
	} else {
		// Reruns are visible as running; first runs go straight to a
		// terminal state below.
		if err := s.artifacts.UpdateFields(ctx, tx, artifact.ID, map[string]interface{}{
			"status":        types.ArtifactStatusRunning,
			"error_message": "",
		}); err != nil {
			return nil, err
		}
		artifact.Status = types.ArtifactStatusRunning
		artifact.ErrorMessage = ""
	}

	content, genErr := produce(ctx, tx, book)
	if genErr != nil {
		s.log.Warn("Artifact generation failed", "book_id", bookID, "kind", kind, "error", genErr)
		if err := s.artifacts.UpdateFields(ctx, tx, artifact.ID, map[string]interface{}{
			"status":        types.ArtifactStatusFailed,
			"error_message": genErr.Error(),
		}); err != nil {
			return nil, err
		}
		artifact.Status = types.ArtifactStatusFailed
		artifact.ErrorMessage = genErr.Error()
		return artifact, nil
	}

	if err := s.artifacts.UpdateFields(ctx, tx, artifact.ID, map[string]interface{}{
		"status":         types.ArtifactStatusCompleted,
		"content":        content,
		"error_message":  "",
		"model_name":     s.llm.ModelName(),
		"prompt_version": PromptVersion,
	}); err != nil {
		return nil, err
	}
	artifact.Status = types.ArtifactStatusCompleted
	artifact.Content = content
	artifact.ErrorMessage = ""
	artifact.ModelName = s.llm.ModelName()
	artifact.PromptVersion = PromptVersion
	s.log.Info("Artifact completed", "book_id", bookID, "kind", kind)
	return artifact, nil
}

func (s *artifactService) produceSummary(ctx context.Context, tx *gorm.DB, book *types.Book) (string, error) {
	bf, err := s.bookFiles.GetByBook(ctx, tx, book.ID)
	if err != nil {
		return "", err
	}
	if bf == nil {
		return "", fmt.Errorf("no file uploaded for book %s", book.ID)
	}
	data, err := s.storage.Get(ctx, bf.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("fetch book file: %w", err)
	}
	text, err := ExtractText(bf.OriginalFilename, bf.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	prompt, err := BuildSummaryPrompt(book.Title, book.Author, text)
	if err != nil {
		return "", err
	}
	return s.llm.Generate(ctx, prompt)
}

func (s *artifactService) produceConsensus(ctx context.Context, tx *gorm.DB, book *types.Book) (string, error) {
	reviews, err := s.reviews.ListForBook(ctx, tx, book.ID)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return "", fmt.Errorf("no reviews for book %s", book.ID)
	}
	ratings := make([]int, 0, len(reviews))
	texts := make([]string, 0, len(reviews))
	for _, rev := range reviews {
		ratings = append(ratings, rev.Rating)
		texts = append(texts, rev.ReviewText)
	}
	prompt, err := BuildConsensusPrompt(book.Title, ratings, texts)
	if err != nil {
		return "", err
	}
	return s.llm.Generate(ctx, prompt)
}
