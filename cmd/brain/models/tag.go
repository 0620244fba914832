package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a global label shared by all users. Titles are unique ignoring case.
// Maps to: tags table
type Tag struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
