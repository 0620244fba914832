package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder
// Maps to: users table
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ShareLink grants read access to a user's content to anyone holding Hash
// Maps to: share_links table
type ShareLink struct {
	Hash      string    `db:"hash" json:"hash"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
