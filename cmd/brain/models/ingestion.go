package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an ingestion job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job will not change state again
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// IngestionJob tracks one extract -> embed -> upsert run for a content item
type IngestionJob struct {
	ID        uuid.UUID   `json:"id"`
	ContentID uuid.UUID   `json:"contentId"`
	UserID    uuid.UUID   `json:"userId"`
	Type      ContentType `json:"type"`
	Status    JobStatus   `json:"status"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
