package container

import (
	"context"
	"fmt"

	"github.com/lyzr/secondbrain/cmd/brain/embedding"
	"github.com/lyzr/secondbrain/cmd/brain/extractor"
	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
	"github.com/lyzr/secondbrain/cmd/brain/search"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/lyzr/secondbrain/common/auth"
	"github.com/lyzr/secondbrain/common/bootstrap"
	"github.com/lyzr/secondbrain/common/ratelimit"
	"github.com/lyzr/secondbrain/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Validator  *validation.Validator
	Tokens     *auth.TokenService

	// Repositories
	UserRepo      *repository.UserRepository
	TagRepo       *repository.TagRepository
	ContentRepo   *repository.ContentRepository
	ShareLinkRepo *repository.ShareLinkRepository

	// Ingestion pipeline
	Orchestrator *ingestion.Orchestrator
	Statuses     ingestion.StatusStore
	VectorStore  vectorstore.Store

	// Services
	AuthService    *service.AuthService
	TagService     *service.TagService
	ContentService *service.ContentService
	ShareService   *service.ShareService
	SearchService  *service.SearchService

	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *ratelimit.RateLimiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	tokens, err := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(components.DB)
	tagRepo := repository.NewTagRepository(components.DB)
	contentRepo := repository.NewContentRepository(components.DB)
	shareLinkRepo := repository.NewShareLinkRepository(components.DB)

	// Ingestion pipeline (bottom-up: dependencies first)
	embedder, err := embedding.New(cfg.Embedding, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := vectorstore.New(cfg.VectorStore, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	statuses, err := newStatusStore(components)
	if err != nil {
		return nil, err
	}

	opts := []ingestion.Option{}
	if components.Telemetry != nil {
		opts = append(opts, ingestion.WithTelemetry(components.Telemetry))
	}
	orchestrator, err := ingestion.New(
		cfg.Ingestion,
		cfg.VectorStore.TopK,
		extractor.New(cfg.Extractor, log),
		embedder,
		store,
		statuses,
		log,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion orchestrator: %w", err)
	}

	filter, err := search.NewFilter()
	if err != nil {
		_ = orchestrator.Close(context.Background())
		return nil, fmt.Errorf("failed to create search filter: %w", err)
	}

	// Initialize services
	validator := validation.New()
	authService := service.NewAuthService(userRepo, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, log)
	var tagOpts []service.TagOption
	if cfg.Service.LossyTagLookup {
		tagOpts = append(tagOpts, service.WithLossyTitles())
	}
	tagService := service.NewTagService(tagRepo, log, tagOpts...)
	contentService := service.NewContentService(contentRepo, userRepo, tagService, orchestrator, validator, log)
	shareService := service.NewShareService(shareLinkRepo, components.Cache, cfg.Cache.DefaultTTL, log)
	searchService := service.NewSearchService(orchestrator, filter)

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && components.Redis != nil {
		limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
	}

	return &Container{
		Components:     components,
		Validator:      validator,
		Tokens:         tokens,
		UserRepo:       userRepo,
		TagRepo:        tagRepo,
		ContentRepo:    contentRepo,
		ShareLinkRepo:  shareLinkRepo,
		Orchestrator:   orchestrator,
		Statuses:       statuses,
		VectorStore:    store,
		AuthService:    authService,
		TagService:     tagService,
		ContentService: contentService,
		ShareService:   shareService,
		SearchService:  searchService,
		RateLimiter:    limiter,
	}, nil
}

// Close drains the ingestion pool
func (c *Container) Close(ctx context.Context) error {
	return c.Orchestrator.Close(ctx)
}

func newStatusStore(components *bootstrap.Components) (ingestion.StatusStore, error) {
	cfg := components.Config.Ingestion
	switch cfg.StatusStore {
	case "redis":
		if components.Redis == nil {
			return nil, fmt.Errorf("redis status store selected but redis is not configured")
		}
		return ingestion.NewRedisStatusStore(components.Redis, cfg.JobTTL), nil
	case "memory":
		return ingestion.NewMemoryStatusStore(), nil
	default:
		return nil, fmt.Errorf("unknown ingestion status store: %s", cfg.StatusStore)
	}
}
