package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/common/db"
)

// TagRepository handles database operations for tags
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *db.DB) *TagRepository {
	return &TagRepository{db: db}
}

// FindByTitleFold retrieves the tag whose title equals title ignoring case
func (r *TagRepository) FindByTitleFold(ctx context.Context, title string) (*models.Tag, error) {
	query := `
		SELECT id, title, created_at
		FROM tags
		WHERE LOWER(title) = LOWER($1)
	`

	tag := &models.Tag{}
	err := r.db.QueryRow(ctx, query, title).Scan(&tag.ID, &tag.Title, &tag.CreatedAt)
	if err != nil {
		return nil, classify("failed to find tag", err)
	}
	return tag, nil
}

// Insert creates tag unless a tag with the same folded title exists.
// Returns false when the unique index rejected the row.
func (r *TagRepository) Insert(ctx context.Context, tag *models.Tag) (bool, error) {
	query := `
		INSERT INTO tags (id, title)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query, tag.ID, tag.Title).Scan(&tag.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("failed to insert tag", err)
	}
	return true, nil
}

// GetByIDs retrieves the tags with the given ids. Missing ids are skipped;
// the result order is unspecified.
func (r *TagRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, title, created_at
		FROM tags
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, classify("failed to get tags", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Title, &tag.CreatedAt); err != nil {
			return nil, classify("failed to scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating tags", err)
	}
	return tags, nil
}
