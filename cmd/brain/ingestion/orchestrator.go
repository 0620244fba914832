// Package ingestion runs the extract -> embed -> upsert pipeline for saved
// content on a bounded worker pool and records each job's progress.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/embedding"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/telemetry"
	"github.com/panjf2000/ants/v2"
)

var (
	// ErrUnauthenticated is returned when a search has no owning user
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrQueueFull is returned when the pool cannot accept more jobs
	ErrQueueFull = errors.New("ingestion queue full")
)

// statusWriteTimeout bounds the final status write, which outlives the job deadline
const statusWriteTimeout = 5 * time.Second

// Extractor produces the text to embed for a content item
type Extractor interface {
	Extract(ctx context.Context, link string, contentType models.ContentType, title string) (string, error)
}

// Request describes one content item to ingest
type Request struct {
	ContentID uuid.UUID
	UserID    uuid.UUID
	Link      string
	Type      models.ContentType
	Title     string
}

// Orchestrator owns the worker pool and the job status store
type Orchestrator struct {
	extractor Extractor
	embedder  embedding.Embedder
	store     vectorstore.Store
	statuses  StatusStore
	pool      *ants.Pool
	log       *logger.Logger
	telemetry *telemetry.Telemetry

	topK         int
	jobTimeout   time.Duration
	pollInterval time.Duration
	now          func() time.Time

	// capacity bounds queued plus running jobs; 0 means unbounded
	capacity int64
	inflight atomic.Int64
	wg       sync.WaitGroup
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTelemetry records per-job durations
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *Orchestrator) {
		o.telemetry = t
	}
}

// WithPollInterval sets how often Wait checks job status
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// New creates an orchestrator with a pool of cfg.PoolSize workers.
// At most cfg.QueueSize submissions wait for a free worker.
func New(
	cfg config.IngestionConfig,
	topK int,
	extractor Extractor,
	embedder embedding.Embedder,
	store vectorstore.Store,
	statuses StatusStore,
	log *logger.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	size := cfg.PoolSize
	if size < 1 {
		size = 1
	}

	var capacity int64
	poolOpts := []ants.Option{}
	if cfg.QueueSize > 0 {
		capacity = int64(size + cfg.QueueSize)
		poolOpts = append(poolOpts, ants.WithMaxBlockingTasks(cfg.QueueSize))
	}

	pool, err := ants.NewPool(size, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	if topK < 1 {
		topK = config.DefaultTopK
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}

	o := &Orchestrator{
		extractor:    extractor,
		embedder:     embedder,
		store:        store,
		statuses:     statuses,
		pool:         pool,
		log:          log.WithComponent("ingestion"),
		topK:         topK,
		jobTimeout:   jobTimeout,
		pollInterval: 250 * time.Millisecond,
		now:          time.Now,
		capacity:     capacity,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Submit records a pending job and hands it to the pool. The returned job is
// a snapshot; use Status to follow it.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*models.IngestionJob, error) {
	now := o.now().UTC()
	job := &models.IngestionJob{
		ID:        uuid.New(),
		ContentID: req.ContentID,
		UserID:    req.UserID,
		Type:      req.Type,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.statuses.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	snapshot := *job

	if n := o.inflight.Add(1); o.capacity > 0 && n > o.capacity {
		o.inflight.Add(-1)
		o.finish(context.WithoutCancel(ctx), job, ErrQueueFull)
		return nil, ErrQueueFull
	}

	o.wg.Add(1)
	go o.dispatch(job, req)

	o.log.Debug("ingestion job queued",
		"job_id", job.ID,
		"content_id", req.ContentID,
		"type", req.Type,
	)
	return &snapshot, nil
}

// dispatch blocks until a worker takes the job, keeping callers of Submit
// off the pool's wait queue.
func (o *Orchestrator) dispatch(job *models.IngestionJob, req Request) {
	err := o.pool.Submit(func() { o.run(job, req) })
	if err == nil {
		return
	}

	defer o.done()
	if errors.Is(err, ants.ErrPoolOverload) {
		err = ErrQueueFull
	} else {
		err = fmt.Errorf("failed to submit job: %w", err)
	}
	o.finish(context.Background(), job, err)
}

func (o *Orchestrator) done() {
	o.inflight.Add(-1)
	o.wg.Done()
}

func (o *Orchestrator) run(job *models.IngestionJob, req Request) {
	defer o.done()

	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	start := time.Now()
	o.transition(ctx, job, models.JobStatusRunning, "")

	err := o.process(ctx, req)

	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancelWrite()
	o.finish(writeCtx, job, err)

	if o.telemetry != nil {
		o.telemetry.RecordDuration("ingest", start, "type", req.Type, "ok", err == nil)
	}
}

func (o *Orchestrator) process(ctx context.Context, req Request) error {
	text, err := o.extractor.Extract(ctx, req.Link, req.Type, req.Title)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	vector, err := o.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	record := vectorstore.Record{
		ID:     req.ContentID.String(),
		Values: vector,
		Metadata: map[string]string{
			"id":    req.ContentID.String(),
			"title": req.Title,
			"link":  req.Link,
			"type":  string(req.Type),
		},
	}
	if err := o.store.Upsert(ctx, req.UserID.String(), record); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, job *models.IngestionJob, err error) {
	log := o.log.WithJobID(job.ID.String())

	if err != nil {
		log.Error("ingestion failed",
			"content_id", job.ContentID,
			"user_id", job.UserID,
			"type", job.Type,
			"error", err,
		)
		o.transition(ctx, job, models.JobStatusFailed, err.Error())
		return
	}

	log.Info("ingestion succeeded", "content_id", job.ContentID, "type", job.Type)
	o.transition(ctx, job, models.JobStatusSucceeded, "")
}

func (o *Orchestrator) transition(ctx context.Context, job *models.IngestionJob, status models.JobStatus, msg string) {
	job.Status = status
	job.Error = msg
	job.UpdatedAt = o.now().UTC()

	if err := o.statuses.Save(ctx, job); err != nil {
		o.log.Warn("failed to record job status",
			"job_id", job.ID,
			"status", status,
			"error", err,
		)
	}
}

// Status returns the current state of a job
func (o *Orchestrator) Status(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	return o.statuses.Get(ctx, jobID)
}

// StatusForContent returns the latest job for a content item
func (o *Orchestrator) StatusForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error) {
	return o.statuses.LatestForContent(ctx, contentID)
}

// Wait blocks until the job reaches a terminal state or ctx ends
func (o *Orchestrator) Wait(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		job, err := o.statuses.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Search embeds query and returns the closest items in the user's namespace
func (o *Orchestrator) Search(ctx context.Context, userID uuid.UUID, query string, topK int) ([]vectorstore.Match, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if topK < 1 {
		topK = o.topK
	}

	vector, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := o.store.Query(ctx, userID.String(), vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	return matches, nil
}

// Forget removes the embedding of a deleted content item
func (o *Orchestrator) Forget(ctx context.Context, userID, contentID uuid.UUID) error {
	if err := o.store.Delete(ctx, userID.String(), contentID.String()); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// Close waits for queued and running jobs, then releases the pool
func (o *Orchestrator) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("ingestion jobs still running: %w", ctx.Err())
	}

	o.pool.Release()
	return err
}
