package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/common/db"
)

// ShareLinkRepository handles database operations for share links
type ShareLinkRepository struct {
	db *db.DB
}

// NewShareLinkRepository creates a new share link repository
func NewShareLinkRepository(db *db.DB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

// Create stores a new share link
func (r *ShareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	query := `
		INSERT INTO share_links (hash, user_id)
		VALUES ($1, $2)
		RETURNING created_at
	`

	if err := r.db.QueryRow(ctx, query, link.Hash, link.UserID).Scan(&link.CreatedAt); err != nil {
		return classify("failed to create share link", err)
	}
	return nil
}

// GetByHash retrieves a share link
func (r *ShareLinkRepository) GetByHash(ctx context.Context, hash string) (*models.ShareLink, error) {
	query := `SELECT hash, user_id, created_at FROM share_links WHERE hash = $1`

	link := &models.ShareLink{}
	if err := r.db.QueryRow(ctx, query, hash).Scan(&link.Hash, &link.UserID, &link.CreatedAt); err != nil {
		return nil, classify("failed to get share link", err)
	}
	return link, nil
}

// DeleteByUser removes every share link of a user and returns the hashes removed
func (r *ShareLinkRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM share_links WHERE user_id = $1 RETURNING hash`, userID)
	if err != nil {
		return nil, classify("failed to delete share links", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, classify("failed to scan share link", err)
		}
		hashes = append(hashes, hash)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating share links", err)
	}
	return hashes, nil
}
