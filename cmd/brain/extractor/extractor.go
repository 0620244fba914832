// Package extractor turns a saved link into plain text worth embedding.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/common/clients"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/security"
)

var (
	ErrInvalidLink       = errors.New("invalid link")
	ErrUnsupportedType   = errors.New("unsupported content type")
	ErrNotFound          = errors.New("content not found")
	ErrMissingCredential = errors.New("missing credential")
	ErrFetch             = errors.New("fetch failed")
)

// Source extracts text for one content type
type Source interface {
	Extract(ctx context.Context, link, title string) (string, error)
}

// Extractor dispatches to the Source registered for a content type
type Extractor struct {
	sources map[models.ContentType]Source
}

// New wires the default sources from cfg
func New(cfg config.ExtractorConfig, log *logger.Logger) *Extractor {
	log = log.WithComponent("extractor")

	apiClient := clients.NewHTTPClient(clients.Options{Timeout: cfg.FetchTimeout}, log)

	pageOpts := clients.Options{
		Timeout:           cfg.FetchTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             int(cfg.RequestsPerSecond) + 1,
	}
	var urlValidator *security.URLValidator
	if !cfg.AllowPrivateHosts {
		pageOpts.DialControl = security.NewIPValidator().DialControl
		urlValidator = security.NewURLValidator()
	}
	pageClient := clients.NewHTTPClient(pageOpts, log)

	media := MediaSource{}
	return NewWithSources(map[models.ContentType]Source{
		models.ContentTypeYouTube: NewYouTubeSource(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey, apiClient),
		models.ContentTypeTweet:   NewTweetSource(cfg.TwitterAPIURL, cfg.TwitterBearerToken, apiClient),
		models.ContentTypeArticle: NewArticleSource(pageClient, urlValidator, cfg.FetchMaxBytes),
		models.ContentTypeImage:   media,
		models.ContentTypeAudio:   media,
	})
}

// NewWithSources creates an extractor from an explicit source table
func NewWithSources(sources map[models.ContentType]Source) *Extractor {
	return &Extractor{sources: sources}
}

// Extract returns the text to embed for a content item
func (e *Extractor) Extract(ctx context.Context, link string, contentType models.ContentType, title string) (string, error) {
	source, ok := e.sources[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return source.Extract(ctx, link, title)
}

// MediaSource handles image and audio items. The payload is never
// inspected; the user's title is the content.
type MediaSource struct{}

// Extract returns title
func (MediaSource) Extract(ctx context.Context, link, title string) (string, error) {
	return title, nil
}
