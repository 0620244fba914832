package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/validation"
)

// ContentInput is the user-editable shape of a content item
type ContentInput struct {
	Type  models.ContentType `json:"type" validate:"required,oneof=youtube tweet article image audio"`
	Link  string             `json:"link" validate:"required,url,max=2048"`
	Title string             `json:"title" validate:"required,min=1,max=500"`
	Tags  []string           `json:"tags" validate:"required,min=1,max=32,dive,required,max=64"`
}

// ContentStore is the persistence used by ContentService
type ContentStore interface {
	Create(ctx context.Context, content *models.Content) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Content, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Content, error)
	Update(ctx context.Context, content *models.Content) error
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

// Ingestor runs and tracks the embedding pipeline
type Ingestor interface {
	Submit(ctx context.Context, req ingestion.Request) (*models.IngestionJob, error)
	StatusForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error)
	Forget(ctx context.Context, userID, contentID uuid.UUID) error
}

// ContentService manages saved content and keeps its embeddings in step
type ContentService struct {
	contents  ContentStore
	users     UserStore
	tags      *TagService
	ingestor  Ingestor
	validator *validation.Validator
	patcher   *validation.MergePatcher
	log       *logger.Logger
}

// NewContentService creates a new content service
func NewContentService(
	contents ContentStore,
	users UserStore,
	tags *TagService,
	ingestor Ingestor,
	validator *validation.Validator,
	log *logger.Logger,
) *ContentService {
	return &ContentService{
		contents:  contents,
		users:     users,
		tags:      tags,
		ingestor:  ingestor,
		validator: validator,
		patcher:   validation.NewMergePatcher("type", "link", "title", "tags"),
		log:       log,
	}
}

// Create resolves tags, stores the content and queues ingestion. A queueing
// failure is logged and leaves job nil; the content is still saved.
func (s *ContentService) Create(ctx context.Context, userID uuid.UUID, in ContentInput) (*models.Content, *models.IngestionJob, error) {
	if userID == uuid.Nil {
		return nil, nil, ErrUnauthenticated
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, nil, err
	}

	tagIDs, err := s.tags.Resolve(ctx, in.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tags: %w", err)
	}

	content := &models.Content{
		ID:     uuid.New(),
		UserID: userID,
		Title:  strings.TrimSpace(in.Title),
		Type:   in.Type,
		Link:   strings.TrimSpace(in.Link),
		TagIDs: tagIDs,
	}
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, nil, fmt.Errorf("failed to create content: %w", err)
	}

	s.log.Info("created content", "content_id", content.ID, "user_id", userID, "type", content.Type)

	return content, s.submit(ctx, content), nil
}

// List returns a user's content with tag titles, newest first
func (s *ContentService) List(ctx context.Context, userID uuid.UUID) ([]*models.ContentView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	contents, err := s.contents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	lists := make([][]uuid.UUID, len(contents))
	for i, c := range contents {
		lists[i] = c.TagIDs
	}
	titles, err := s.tags.TitlesForMany(ctx, lists)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tag titles: %w", err)
	}

	views := make([]*models.ContentView, len(contents))
	for i, c := range contents {
		views[i] = &models.ContentView{
			ID:        c.ID,
			Title:     c.Title,
			Type:      c.Type,
			Link:      c.Link,
			Tags:      titles[i],
			UserID:    c.UserID,
			Username:  user.Username,
			CreatedAt: c.CreatedAt,
		}
	}
	return views, nil
}

// Update applies an RFC 7386 merge patch to the user's content item,
// re-resolves tags and re-queues ingestion.
func (s *ContentService) Update(ctx context.Context, userID, contentID uuid.UUID, patch []byte) (*models.Content, *models.IngestionJob, error) {
	content, err := s.get(ctx, userID, contentID)
	if err != nil {
		return nil, nil, err
	}

	tagTitles, err := s.tags.TitlesFor(ctx, content.TagIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tag titles: %w", err)
	}

	current := ContentInput{
		Type:  content.Type,
		Link:  content.Link,
		Title: content.Title,
		Tags:  tagTitles,
	}

	var next ContentInput
	if err := s.patcher.Apply(current, patch, &next); err != nil {
		return nil, nil, err
	}
	if err := s.validator.Validate(next); err != nil {
		return nil, nil, err
	}

	tagIDs, err := s.tags.Resolve(ctx, next.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tags: %w", err)
	}

	content.Type = next.Type
	content.Link = strings.TrimSpace(next.Link)
	content.Title = strings.TrimSpace(next.Title)
	content.TagIDs = tagIDs

	if err := s.contents.Update(ctx, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrContentNotFound
		}
		return nil, nil, fmt.Errorf("failed to update content: %w", err)
	}

	s.log.Info("updated content", "content_id", content.ID, "user_id", userID)

	return content, s.submit(ctx, content), nil
}

// Delete removes the user's content item and, best-effort, its embedding.
// Returns false when nothing matched both id and owner.
func (s *ContentService) Delete(ctx context.Context, userID, contentID uuid.UUID) (bool, error) {
	n, err := s.contents.DeleteForUser(ctx, contentID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete content: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := s.ingestor.Forget(ctx, userID, contentID); err != nil {
		s.log.Warn("failed to delete embedding", "content_id", contentID, "user_id", userID, "error", err)
	}

	s.log.Info("deleted content", "content_id", contentID, "user_id", userID)
	return true, nil
}

// IngestionStatus returns the latest job for one of the user's content items
func (s *ContentService) IngestionStatus(ctx context.Context, userID, contentID uuid.UUID) (*models.IngestionJob, error) {
	if _, err := s.get(ctx, userID, contentID); err != nil {
		return nil, err
	}
	return s.ingestor.StatusForContent(ctx, contentID)
}

func (s *ContentService) get(ctx context.Context, userID, contentID uuid.UUID) (*models.Content, error) {
	content, err := s.contents.GetByIDForUser(ctx, contentID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return content, nil
}

func (s *ContentService) submit(ctx context.Context, content *models.Content) *models.IngestionJob {
	job, err := s.ingestor.Submit(ctx, ingestion.Request{
		ContentID: content.ID,
		UserID:    content.UserID,
		Link:      content.Link,
		Type:      content.Type,
		Title:     content.Title,
	})
	if err != nil {
		s.log.Error("failed to queue ingestion", "content_id", content.ID, "error", err)
		return nil
	}
	return job
}
