package ingestion

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	rediscommon "github.com/lyzr/secondbrain/common/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHashStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	strings map[string]string
	ttls    map[string]time.Duration
}

func newFakeHashStore() *fakeHashStore {
	return &fakeHashStore{
		hashes:  map[string]map[string]string{},
		strings: map[string]string{},
		ttls:    map[string]time.Duration{},
	}
}

func (f *fakeHashStore) SetHashFields(ctx context.Context, key string, fields map[string]string, expiry time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	f.ttls[key] = expiry
	return nil
}

func (f *fakeHashStore) GetAllHash(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeHashStore) SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = value
	f.ttls[key] = expiry
	return nil
}

func (f *fakeHashStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", rediscommon.ErrKeyNotFound, key)
	}
	return v, nil
}

func sampleJob() *models.IngestionJob {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.IngestionJob{
		ID:        uuid.New(),
		ContentID: uuid.New(),
		UserID:    uuid.New(),
		Type:      models.ContentTypeArticle,
		Status:    models.JobStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestRedisStatusStore(t *testing.T) {
	ctx := context.Background()
	redis := newFakeHashStore()
	store := NewRedisStatusStore(redis, time.Hour)

	job := sampleJob()
	require.NoError(t, store.Save(ctx, job))

	job.Status = models.JobStatusFailed
	job.Error = "extract: fetch failed: status 500"
	job.UpdatedAt = job.CreatedAt.Add(3 * time.Second)
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	latest, err := store.LatestForContent(ctx, job.ContentID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, latest.ID)

	assert.Equal(t, time.Hour, redis.ttls["ingest:job:"+job.ID.String()])
	assert.Equal(t, time.Hour, redis.ttls["ingest:content:"+job.ContentID.String()])
}

func TestRedisStatusStore_Missing(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStatusStore(newFakeHashStore(), time.Hour)

	_, err := store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = store.LatestForContent(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryStatusStore_LatestWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	first := sampleJob()
	second := sampleJob()
	second.ContentID = first.ContentID

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	latest, err := store.LatestForContent(ctx, first.ContentID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	got.Status = models.JobStatusFailed

	again, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, again.Status, "Get returns copies")
}
