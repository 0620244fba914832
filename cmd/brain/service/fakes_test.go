package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
)

type fakeTagStore struct {
	mu    sync.Mutex
	tags  map[uuid.UUID]*models.Tag
	finds int
	// raceTitle is created by a simulated concurrent writer right before Insert
	raceTitle string
	findErr   error
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{tags: make(map[uuid.UUID]*models.Tag)}
}

func (f *fakeTagStore) add(title string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.tags[id] = &models.Tag{ID: id, Title: title}
	return id
}

func (f *fakeTagStore) lookup(title string) *models.Tag {
	for _, t := range f.tags {
		if strings.EqualFold(t.Title, title) {
			return t
		}
	}
	return nil
}

func (f *fakeTagStore) FindByTitleFold(ctx context.Context, title string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if t := f.lookup(title); t != nil {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTagStore) Insert(ctx context.Context, tag *models.Tag) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceTitle != "" && strings.EqualFold(f.raceTitle, tag.Title) {
		id := uuid.New()
		f.tags[id] = &models.Tag{ID: id, Title: f.raceTitle}
		f.raceTitle = ""
	}
	if f.lookup(tag.Title) != nil {
		return false, nil
	}
	f.tags[tag.ID] = &models.Tag{ID: tag.ID, Title: tag.Title}
	return true, nil
}

func (f *fakeTagStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tag
	for _, id := range ids {
		if t, ok := f.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

type fakeContentStore struct {
	mu       sync.Mutex
	contents []*models.Content
}

func (f *fakeContentStore) Create(ctx context.Context, content *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	content.CreatedAt = time.Now()
	content.UpdatedAt = content.CreatedAt
	cp := *content
	f.contents = append(f.contents, &cp)
	return nil
}

func (f *fakeContentStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contents {
		if c.ID == id && c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeContentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Content
	for i := len(f.contents) - 1; i >= 0; i-- {
		if c := f.contents[i]; c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeContentStore) Update(ctx context.Context, content *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.contents {
		if c.ID == content.ID && c.UserID == content.UserID {
			cp := *content
			f.contents[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeContentStore) DeleteForUser(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.contents {
		if c.ID == id && c.UserID == userID {
			f.contents = append(f.contents[:i], f.contents[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeIngestor struct {
	mu        sync.Mutex
	submitted []ingestion.Request
	forgotten []uuid.UUID
	submitErr error
	forgetErr error
	jobs      map[uuid.UUID]*models.IngestionJob
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{jobs: make(map[uuid.UUID]*models.IngestionJob)}
}

func (f *fakeIngestor) Submit(ctx context.Context, req ingestion.Request) (*models.IngestionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	job := &models.IngestionJob{
		ID:        uuid.New(),
		ContentID: req.ContentID,
		UserID:    req.UserID,
		Type:      req.Type,
		Status:    models.JobStatusPending,
	}
	f.jobs[req.ContentID] = job
	return job, nil
}

func (f *fakeIngestor) StatusForContent(ctx context.Context, contentID uuid.UUID) (*models.IngestionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[contentID]; ok {
		return job, nil
	}
	return nil, ingestion.ErrJobNotFound
}

func (f *fakeIngestor) Forget(ctx context.Context, userID, contentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, contentID)
	return f.forgetErr
}

var errBoom = errors.New("boom")
