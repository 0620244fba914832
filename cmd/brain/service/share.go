package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
	"github.com/lyzr/secondbrain/common/cache"
	"github.com/lyzr/secondbrain/common/logger"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	shareHashAlphabet = "0123456789abcdef"
	shareHashLength   = 32
	shareCachePrefix  = "share:"
	maxHashAttempts   = 3
)

// ShareLinkStore is the persistence used by ShareService
type ShareLinkStore interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByHash(ctx context.Context, hash string) (*models.ShareLink, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ShareService issues and revokes public links to a user's brain
type ShareService struct {
	links ShareLinkStore
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewShareService creates a new share service. c may be nil.
func NewShareService(links ShareLinkStore, c cache.Cache, ttl time.Duration, log *logger.Logger) *ShareService {
	return &ShareService{
		links: links,
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

// Enable creates a new share link for the user and returns its hash
func (s *ShareService) Enable(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", ErrUnauthenticated
	}

	for attempt := 0; attempt < maxHashAttempts; attempt++ {
		hash, err := gonanoid.Generate(shareHashAlphabet, shareHashLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate share hash: %w", err)
		}

		err = s.links.Create(ctx, &models.ShareLink{Hash: hash, UserID: userID})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create share link: %w", err)
		}

		s.log.Info("share link created", "user_id", userID)
		return hash, nil
	}

	return "", fmt.Errorf("failed to create share link: %d hash collisions", maxHashAttempts)
}

// Disable revokes every share link of the user and returns how many were removed
func (s *ShareService) Disable(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, ErrUnauthenticated
	}

	hashes, err := s.links.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete share links: %w", err)
	}

	if s.cache != nil {
		for _, hash := range hashes {
			if err := s.cache.Delete(ctx, shareCachePrefix+hash); err != nil {
				s.log.Warn("failed to evict share link", "error", err)
			}
		}
	}

	s.log.Info("share links disabled", "user_id", userID, "count", len(hashes))
	return len(hashes), nil
}

// Resolve returns the owner of a share link
func (s *ShareService) Resolve(ctx context.Context, hash string) (uuid.UUID, error) {
	if hash == "" {
		return uuid.Nil, ErrShareLinkNotFound
	}

	key := shareCachePrefix + hash
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if id, err := uuid.ParseBytes(raw); err == nil {
				return id, nil
			}
		}
	}

	link, err := s.links.GetByHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, ErrShareLinkNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get share link: %w", err)
	}

	if s.cache == nil {
		return link.UserID, nil
	}
	if err := s.cache.Set(ctx, key, []byte(link.UserID.String()), s.ttl); err != nil {
		s.log.Warn("failed to cache share link", "error", err)
		return link.UserID, nil
	}

	// A Disable between the read and the Set evicts before the entry exists.
	// Confirm the row survived the Set so a revoked hash is never cached.
	if _, err := s.links.GetByHash(ctx, hash); err != nil {
		if evictErr := s.cache.Delete(ctx, key); evictErr != nil {
			s.log.Warn("failed to evict share link", "error", evictErr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrShareLinkNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return link.UserID, nil
}
