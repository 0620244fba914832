package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/common/bootstrap"
	"github.com/lyzr/secondbrain/common/logger"
)

type userLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type contentLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Content, error)
}

type jobRunner interface {
	Submit(ctx context.Context, req ingestion.Request) (*models.IngestionJob, error)
	Wait(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error)
}

type reindexResult struct {
	Submitted int
	Succeeded int
	Failed    int
}

// reindexer re-submits content in batches and waits for each batch to finish
type reindexer struct {
	users     userLister
	contents  contentLister
	runner    jobRunner
	batchSize int
	log       *logger.Logger
}

// Run reindexes one user, or every user when only is uuid.Nil
func (r *reindexer) Run(ctx context.Context, only uuid.UUID) (reindexResult, error) {
	var result reindexResult

	userIDs := []uuid.UUID{only}
	if only == uuid.Nil {
		ids, err := r.users.ListIDs(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to list users: %w", err)
		}
		userIDs = ids
	}

	batchSize := r.batchSize
	if batchSize < 1 {
		batchSize = 1
	}

	var pending []uuid.UUID
	for _, userID := range userIDs {
		contents, err := r.contents.ListByUser(ctx, userID)
		if err != nil {
			return result, fmt.Errorf("failed to list content for %s: %w", userID, err)
		}

		for _, content := range contents {
			job, err := r.runner.Submit(ctx, ingestion.Request{
				ContentID: content.ID,
				UserID:    content.UserID,
				Link:      content.Link,
				Type:      content.Type,
				Title:     content.Title,
			})
			if err != nil {
				r.log.Error("failed to submit reindex job", "content_id", content.ID, "error", err)
				result.Failed++
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return result, err
				}
				continue
			}
			result.Submitted++
			pending = append(pending, job.ID)

			if len(pending) >= batchSize {
				if err := r.drain(ctx, pending, &result); err != nil {
					return result, err
				}
				pending = pending[:0]
			}
		}
	}

	if err := r.drain(ctx, pending, &result); err != nil {
		return result, err
	}
	return result, nil
}

func (r *reindexer) drain(ctx context.Context, jobIDs []uuid.UUID, result *reindexResult) error {
	for _, id := range jobIDs {
		job, err := r.runner.Wait(ctx, id)
		if err != nil {
			return fmt.Errorf("failed waiting for job %s: %w", id, err)
		}
		if job.Status == models.JobStatusSucceeded {
			result.Succeeded++
			continue
		}
		result.Failed++
		r.log.Warn("reindex job failed", "job_id", id, "content_id", job.ContentID, "error", job.Error)
	}
	return nil
}

func jobStatusStore(components *bootstrap.Components) (ingestion.StatusStore, error) {
	if components.Config.Ingestion.StatusStore != "redis" || components.Redis == nil {
		return nil, fmt.Errorf("job status lookup requires INGEST_STATUS_STORE=redis")
	}
	return ingestion.NewRedisStatusStore(components.Redis, components.Config.Ingestion.JobTTL), nil
}

func printJob(w io.Writer, job *models.IngestionJob) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}
