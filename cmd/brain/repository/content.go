package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/common/db"
)

// ContentRepository handles database operations for content items
type ContentRepository struct {
	db *db.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *db.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `id, user_id, title, type, link, tag_ids, created_at, updated_at`

// Create inserts a new content item
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO contents (id, user_id, title, type, link, tag_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		content.ID,
		content.UserID,
		content.Title,
		string(content.Type),
		content.Link,
		content.TagIDs,
	).Scan(&content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return classify("failed to create content", err)
	}
	return nil
}

// GetByIDForUser retrieves a content item only if userID owns it
func (r *ContentRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1 AND user_id = $2`

	content, err := scanContent(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, classify("failed to get content", err)
	}
	return content, nil
}

// ListByUser retrieves a user's content, newest first
func (r *ContentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListAll retrieves every content item, oldest first
func (r *ContentRepository) ListAll(ctx context.Context) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents ORDER BY created_at ASC`
	return r.list(ctx, query)
}

// Update overwrites the mutable fields of a content item owned by content.UserID
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	query := `
		UPDATE contents
		SET title = $3, type = $4, link = $5, tag_ids = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		content.ID,
		content.UserID,
		content.Title,
		string(content.Type),
		content.Link,
		content.TagIDs,
	).Scan(&content.UpdatedAt)
	if err != nil {
		return classify("failed to update content", err)
	}
	return nil
}

// DeleteForUser removes a content item only if userID owns it.
// Returns the number of rows removed (0 or 1).
func (r *ContentRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM contents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, classify("failed to delete content", err)
	}
	return result.RowsAffected(), nil
}

func (r *ContentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Content, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to list content", err)
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, classify("failed to scan content", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating content", err)
	}
	return contents, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	content := &models.Content{}
	var contentType string
	err := row.Scan(
		&content.ID,
		&content.UserID,
		&content.Title,
		&contentType,
		&content.Link,
		&content.TagIDs,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	content.Type = models.ContentType(contentType)
	return content, nil
}
