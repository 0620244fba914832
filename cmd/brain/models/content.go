package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType is the kind of resource a content item points at
type ContentType string

const (
	ContentTypeYouTube ContentType = "youtube"
	ContentTypeTweet   ContentType = "tweet"
	ContentTypeArticle ContentType = "article"
	ContentTypeImage   ContentType = "image"
	ContentTypeAudio   ContentType = "audio"
)

// ContentTypes lists every supported content type
var ContentTypes = []ContentType{
	ContentTypeYouTube,
	ContentTypeTweet,
	ContentTypeArticle,
	ContentTypeImage,
	ContentTypeAudio,
}

// Valid reports whether t is one of the supported content types
func (t ContentType) Valid() bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// Content is a saved link owned by a user
// Maps to: contents table
type Content struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	UserID    uuid.UUID   `db:"user_id" json:"userId"`
	Title     string      `db:"title" json:"title"`
	Type      ContentType `db:"type" json:"type"`
	Link      string      `db:"link" json:"link"`
	TagIDs    []uuid.UUID `db:"tag_ids" json:"tagIds"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// ContentView is a content item with tag titles and owner resolved
type ContentView struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Type      ContentType `json:"type"`
	Link      string      `json:"link"`
	Tags      []string    `json:"tags"`
	UserID    uuid.UUID   `json:"userId"`
	Username  string      `json:"username"`
	CreatedAt time.Time   `json:"createdAt"`
}
