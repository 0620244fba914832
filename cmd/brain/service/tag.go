package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
	"github.com/lyzr/secondbrain/common/logger"
)

// TagStore is the persistence used by TagService
type TagStore interface {
	FindByTitleFold(ctx context.Context, title string) (*models.Tag, error)
	Insert(ctx context.Context, tag *models.Tag) (bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error)
}

// TagService resolves tag titles to ids and back
type TagService struct {
	repo  TagStore
	log   *logger.Logger
	lossy bool
}

// TagOption configures a TagService
type TagOption func(*TagService)

// WithLossyTitles makes TitlesFor drop unknown ids with a warning instead of failing
func WithLossyTitles() TagOption {
	return func(s *TagService) {
		s.lossy = true
	}
}

// NewTagService creates a new tag service
func NewTagService(repo TagStore, log *logger.Logger, opts ...TagOption) *TagService {
	s := &TagService{
		repo: repo,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve maps titles to tag ids, creating tags that do not exist yet.
// Matching ignores case; the output has one id per input, in input order.
func (s *TagService) Resolve(ctx context.Context, titles []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(titles))
	seen := make(map[string]uuid.UUID, len(titles))

	for _, raw := range titles {
		title := strings.TrimSpace(raw)
		if title == "" {
			return nil, fmt.Errorf("%w: empty title", ErrInvalidTag)
		}

		key := strings.ToLower(title)
		if id, ok := seen[key]; ok {
			ids = append(ids, id)
			continue
		}

		id, err := s.resolveOne(ctx, title)
		if err != nil {
			return nil, err
		}
		seen[key] = id
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *TagService) resolveOne(ctx context.Context, title string) (uuid.UUID, error) {
	existing, err := s.repo.FindByTitleFold(ctx, title)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("failed to look up tag %q: %w", title, err)
	}

	tag := &models.Tag{ID: uuid.New(), Title: title}
	inserted, err := s.repo.Insert(ctx, tag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tag %q: %w", title, err)
	}
	if inserted {
		s.log.Info("created tag", "tag_id", tag.ID, "title", title)
		return tag.ID, nil
	}

	// another writer created it between our lookup and insert
	existing, err = s.repo.FindByTitleFold(ctx, title)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read tag %q after conflict: %w", title, err)
	}
	return existing.ID, nil
}

// TitlesFor returns the titles of ids in input order. Unknown ids fail with
// ErrPartialLookup (the found titles are still returned) unless the service
// was built WithLossyTitles.
func (s *TagService) TitlesFor(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	titles, err := s.TitlesForMany(ctx, [][]uuid.UUID{ids})
	if len(titles) == 0 {
		return []string{}, err
	}
	return titles[0], err
}

// TitlesForMany resolves several id lists with a single query
func (s *TagService) TitlesForMany(ctx context.Context, lists [][]uuid.UUID) ([][]string, error) {
	var all []uuid.UUID
	unique := make(map[uuid.UUID]struct{})
	for _, ids := range lists {
		for _, id := range ids {
			if _, ok := unique[id]; !ok {
				unique[id] = struct{}{}
				all = append(all, id)
			}
		}
	}

	byID := make(map[uuid.UUID]string, len(all))
	if len(all) > 0 {
		tags, err := s.repo.GetByIDs(ctx, all)
		if err != nil {
			return nil, fmt.Errorf("failed to get tags: %w", err)
		}
		for _, tag := range tags {
			byID[tag.ID] = tag.Title
		}
	}

	var missing []uuid.UUID
	out := make([][]string, len(lists))
	for i, ids := range lists {
		titles := make([]string, 0, len(ids))
		for _, id := range ids {
			title, ok := byID[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			titles = append(titles, title)
		}
		out[i] = titles
	}

	if len(missing) == 0 {
		return out, nil
	}

	if s.lossy {
		s.log.Warn("some tags were not found", "missing", missing)
		return out, nil
	}
	return out, fmt.Errorf("%w: %d unknown tag ids: %v", ErrPartialLookup, len(missing), missing)
}
