package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/embedding"
	"github.com/lyzr/secondbrain/cmd/brain/extractor"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	texts map[string]string
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, link string, contentType models.ContentType, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if text, ok := f.texts[link]; ok {
		return text, nil
	}
	return title, nil
}

// fakeEmbedder maps known texts to fixed vectors; anything else gets [0, 1]
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 1}, nil
}

type fixture struct {
	orch      *Orchestrator
	store     *vectorstore.MemoryStore
	statuses  *MemoryStatusStore
	extractor *fakeExtractor
	embedder  *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     vectorstore.NewMemoryStore(),
		statuses:  NewMemoryStatusStore(),
		extractor: &fakeExtractor{texts: map[string]string{}},
		embedder:  &fakeEmbedder{vectors: map[string][]float32{}},
	}

	orch, err := New(
		config.IngestionConfig{PoolSize: 2, QueueSize: 16, JobTimeout: 5 * time.Second},
		10,
		f.extractor,
		f.embedder,
		f.store,
		f.statuses,
		logger.Discard(),
		WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { orch.Close(context.Background()) })

	f.orch = orch
	return f
}

func waitFor(t *testing.T, o *Orchestrator, jobID uuid.UUID) *models.IngestionJob {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := o.Wait(ctx, jobID)
	require.NoError(t, err)
	return job
}

func TestSubmit_Succeeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, contentID := uuid.New(), uuid.New()
	f.extractor.texts["https://youtu.be/abc"] = "Go talk\nabout channels"
	f.embedder.vectors["Go talk\nabout channels"] = []float32{1, 0}

	job, err := f.orch.Submit(ctx, Request{
		ContentID: contentID,
		UserID:    userID,
		Link:      "https://youtu.be/abc",
		Type:      models.ContentTypeYouTube,
		Title:     "Go talk",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, contentID, job.ContentID)

	done := waitFor(t, f.orch, job.ID)
	assert.Equal(t, models.JobStatusSucceeded, done.Status)
	assert.Empty(t, done.Error)

	matches, err := f.store.Query(ctx, userID.String(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, contentID.String(), matches[0].ID)
	assert.Equal(t, map[string]string{
		"id":    contentID.String(),
		"title": "Go talk",
		"link":  "https://youtu.be/abc",
		"type":  "youtube",
	}, matches[0].Metadata)

	latest, err := f.orch.StatusForContent(ctx, contentID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, latest.ID)
}

func TestSubmit_RecordsFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr string
	}{
		{
			name:    "extract",
			setup:   func(f *fixture) { f.extractor.err = extractor.ErrNotFound },
			wantErr: "extract: content not found",
		},
		{
			name:    "embed",
			setup:   func(f *fixture) { f.embedder.err = embedding.ErrEmbedding },
			wantErr: "embed: embedding error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			userID := uuid.New()
			job, err := f.orch.Submit(context.Background(), Request{
				ContentID: uuid.New(),
				UserID:    userID,
				Link:      "https://x.com/a/status/1",
				Type:      models.ContentTypeTweet,
				Title:     "a tweet",
			})
			require.NoError(t, err, "submission itself never fails on pipeline errors")

			done := waitFor(t, f.orch, job.ID)
			assert.Equal(t, models.JobStatusFailed, done.Status)
			assert.Contains(t, done.Error, tt.wantErr)
			assert.Zero(t, f.store.Len(userID.String()))
		})
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	f.embedder.vectors["go"] = []float32{1, 0}
	f.embedder.vectors["rust"] = []float32{0, 1}
	f.embedder.vectors["concurrency in go"] = []float32{0.9, 0.1}

	for _, req := range []Request{
		{ContentID: uuid.New(), UserID: alice, Type: models.ContentTypeImage, Title: "go", Link: "https://img/1"},
		{ContentID: uuid.New(), UserID: alice, Type: models.ContentTypeImage, Title: "rust", Link: "https://img/2"},
		{ContentID: uuid.New(), UserID: bob, Type: models.ContentTypeImage, Title: "go", Link: "https://img/3"},
	} {
		job, err := f.orch.Submit(ctx, req)
		require.NoError(t, err)
		require.Equal(t, models.JobStatusSucceeded, waitFor(t, f.orch, job.ID).Status)
	}

	matches, err := f.orch.Search(ctx, alice, "concurrency in go", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2, "only alice's namespace is searched")
	assert.Equal(t, "go", matches[0].Metadata["title"])
	assert.Equal(t, "https://img/1", matches[0].Metadata["link"])

	matches, err = f.orch.Search(ctx, alice, "concurrency in go", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = f.orch.Search(ctx, uuid.Nil, "anything", 0)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, contentID := uuid.New(), uuid.New()
	job, err := f.orch.Submit(ctx, Request{ContentID: contentID, UserID: userID, Type: models.ContentTypeAudio, Title: "song", Link: "https://a/1"})
	require.NoError(t, err)
	waitFor(t, f.orch, job.ID)
	require.Equal(t, 1, f.store.Len(userID.String()))

	require.NoError(t, f.orch.Forget(ctx, userID, contentID))
	assert.Zero(t, f.store.Len(userID.String()))
}

func TestStatus_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = f.orch.StatusForContent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

type blockingExtractor struct {
	release chan struct{}
}

func (b *blockingExtractor) Extract(ctx context.Context, link string, contentType models.ContentType, title string) (string, error) {
	<-b.release
	return title, nil
}

func TestClose_WaitsForRunningJobs(t *testing.T) {
	ext := &blockingExtractor{release: make(chan struct{})}
	statuses := NewMemoryStatusStore()
	orch, err := New(config.IngestionConfig{PoolSize: 1}, 10, ext, &fakeEmbedder{}, vectorstore.NewMemoryStore(), statuses, logger.Discard())
	require.NoError(t, err)

	job, err := orch.Submit(context.Background(), Request{ContentID: uuid.New(), UserID: uuid.New(), Type: models.ContentTypeImage, Title: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, orch.Close(ctx), "job is still blocked")

	close(ext.release)
	require.Eventually(t, func() bool {
		j, err := statuses.Get(context.Background(), job.ID)
		return err == nil && j.Status == models.JobStatusSucceeded
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubmit_StatusStoreFailure(t *testing.T) {
	orch, err := New(config.IngestionConfig{PoolSize: 1}, 10, &fakeExtractor{}, &fakeEmbedder{}, vectorstore.NewMemoryStore(),
		failingStatusStore{}, logger.Discard())
	require.NoError(t, err)
	defer orch.Close(context.Background())

	_, err = orch.Submit(context.Background(), Request{ContentID: uuid.New(), UserID: uuid.New(), Type: models.ContentTypeImage})
	assert.Error(t, err)
}

type failingStatusStore struct{}

func (failingStatusStore) Save(ctx context.Context, job *models.IngestionJob) error {
	return errors.New("redis down")
}

func (failingStatusStore) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	return nil, ErrJobNotFound
}

func (failingStatusStore) LatestForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error) {
	return nil, ErrJobNotFound
}

func TestSubmit_QueueFull(t *testing.T) {
	ext := &blockingExtractor{release: make(chan struct{})}
	statuses := NewMemoryStatusStore()
	orch, err := New(config.IngestionConfig{PoolSize: 1, QueueSize: 1}, 10, ext, &fakeEmbedder{}, vectorstore.NewMemoryStore(), statuses, logger.Discard())
	require.NoError(t, err)

	req := func() Request {
		return Request{ContentID: uuid.New(), UserID: uuid.New(), Type: models.ContentTypeImage, Title: "x"}
	}

	running, err := orch.Submit(context.Background(), req())
	require.NoError(t, err)
	queued, err := orch.Submit(context.Background(), req())
	require.NoError(t, err)

	rejectedReq := req()
	_, err = orch.Submit(context.Background(), rejectedReq)
	assert.ErrorIs(t, err, ErrQueueFull)

	rejected, err := statuses.LatestForContent(context.Background(), rejectedReq.ContentID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, rejected.Status)

	close(ext.release)
	assert.Equal(t, models.JobStatusSucceeded, waitFor(t, orch, running.ID).Status)
	assert.Equal(t, models.JobStatusSucceeded, waitFor(t, orch, queued.ID).Status)
	require.NoError(t, orch.Close(context.Background()))
}

// ctxHashStore fails writes on a done context the way go-redis does
type ctxHashStore struct {
	*fakeHashStore
}

func (s ctxHashStore) SetHashFields(ctx context.Context, key string, fields map[string]string, expiry time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeHashStore.SetHashFields(ctx, key, fields, expiry)
}

func (s ctxHashStore) SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeHashStore.SetWithExpiry(ctx, key, value, expiry)
}

type stallingEmbedder struct{}

func (stallingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRun_TimedOutJobIsMarkedFailed(t *testing.T) {
	statuses := NewRedisStatusStore(ctxHashStore{newFakeHashStore()}, time.Hour)
	orch, err := New(
		config.IngestionConfig{PoolSize: 1, QueueSize: 1, JobTimeout: 50 * time.Millisecond},
		10,
		&fakeExtractor{texts: map[string]string{}},
		stallingEmbedder{},
		vectorstore.NewMemoryStore(),
		statuses,
		logger.Discard(),
		WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { orch.Close(context.Background()) })

	job, err := orch.Submit(context.Background(), Request{
		ContentID: uuid.New(),
		UserID:    uuid.New(),
		Link:      "https://example.com/slow",
		Type:      models.ContentTypeArticle,
		Title:     "slow",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done, err := orch.Wait(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, context.DeadlineExceeded.Error())
}
