package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	rediscommon "github.com/lyzr/secondbrain/common/redis"
)

// ErrJobNotFound is returned for unknown or expired jobs
var ErrJobNotFound = errors.New("ingestion job not found")

// StatusStore persists job state so callers can observe background work
type StatusStore interface {
	Save(ctx context.Context, job *models.IngestionJob) error
	Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error)
	LatestForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error)
}

// MemoryStatusStore keeps job state in process
type MemoryStatusStore struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]models.IngestionJob
	latest map[uuid.UUID]uuid.UUID
}

// NewMemoryStatusStore creates an empty store
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		jobs:   make(map[uuid.UUID]models.IngestionJob),
		latest: make(map[uuid.UUID]uuid.UUID),
	}
}

// Save records job and marks it as the latest job for its content
func (s *MemoryStatusStore) Save(ctx context.Context, job *models.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = *job
	s.latest[job.ContentID] = job.ID
	return nil
}

// Get returns a copy of the job
func (s *MemoryStatusStore) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return &job, nil
}

// LatestForContent returns the most recently saved job for a content item
func (s *MemoryStatusStore) LatestForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error) {
	s.mu.RLock()
	jobID, ok := s.latest[contentID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no job for content %s", ErrJobNotFound, contentID)
	}
	return s.Get(ctx, jobID)
}

// HashStore is the subset of the redis client used for job state
type HashStore interface {
	SetHashFields(ctx context.Context, key string, fields map[string]string, expiry time.Duration) error
	GetAllHash(ctx context.Context, key string) (map[string]string, error)
	SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisStatusStore keeps job state in redis hashes that expire after ttl
type RedisStatusStore struct {
	redis HashStore
	ttl   time.Duration
}

// NewRedisStatusStore creates a redis-backed store
func NewRedisStatusStore(redis HashStore, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{redis: redis, ttl: ttl}
}

func jobKey(jobID uuid.UUID) string {
	return "ingest:job:" + jobID.String()
}

func contentKey(contentID uuid.UUID) string {
	return "ingest:content:" + contentID.String()
}

// Save writes the job hash and points the content index at it
func (s *RedisStatusStore) Save(ctx context.Context, job *models.IngestionJob) error {
	fields := map[string]string{
		"id":         job.ID.String(),
		"content_id": job.ContentID.String(),
		"user_id":    job.UserID.String(),
		"type":       string(job.Type),
		"status":     string(job.Status),
		"error":      job.Error,
		"created_at": job.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": job.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if err := s.redis.SetHashFields(ctx, jobKey(job.ID), fields, s.ttl); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	if err := s.redis.SetWithExpiry(ctx, contentKey(job.ContentID), job.ID.String(), s.ttl); err != nil {
		return fmt.Errorf("failed to index job: %w", err)
	}
	return nil
}

// Get reads a job hash
func (s *RedisStatusStore) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	fields, err := s.redis.GetAllHash(ctx, jobKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return decodeJob(fields)
}

// LatestForContent follows the content index to the newest job
func (s *RedisStatusStore) LatestForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error) {
	raw, err := s.redis.Get(ctx, contentKey(contentID))
	if errors.Is(err, rediscommon.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: no job for content %s", ErrJobNotFound, contentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content job index: %w", err)
	}

	jobID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt job index for content %s: %w", contentID, err)
	}
	return s.Get(ctx, jobID)
}

func decodeJob(fields map[string]string) (*models.IngestionJob, error) {
	job := &models.IngestionJob{
		Type:   models.ContentType(fields["type"]),
		Status: models.JobStatus(fields["status"]),
		Error:  fields["error"],
	}

	var err error
	if job.ID, err = uuid.Parse(fields["id"]); err != nil {
		return nil, fmt.Errorf("corrupt job id: %w", err)
	}
	if job.ContentID, err = uuid.Parse(fields["content_id"]); err != nil {
		return nil, fmt.Errorf("corrupt job content id: %w", err)
	}
	if job.UserID, err = uuid.Parse(fields["user_id"]); err != nil {
		return nil, fmt.Errorf("corrupt job user id: %w", err)
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("corrupt job created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("corrupt job updated_at: %w", err)
	}
	return job, nil
}
