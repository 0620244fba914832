package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/lyzr/secondbrain/common/clients"
	"github.com/lyzr/secondbrain/common/security"
)

// ArticleSource fetches a web page and pulls readable text out of it
type ArticleSource struct {
	client    *clients.HTTPClient
	validator *security.URLValidator
	maxBytes  int64
}

// NewArticleSource creates an article source. A nil validator allows any host.
func NewArticleSource(client *clients.HTTPClient, validator *security.URLValidator, maxBytes int64) *ArticleSource {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &ArticleSource{
		client:    client,
		validator: validator,
		maxBytes:  maxBytes,
	}
}

// Extract returns "<title>\n<description>\n<body text>"
func (s *ArticleSource) Extract(ctx context.Context, link, _ string) (string, error) {
	if s.validator != nil {
		if err := s.validator.Validate(link); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
	}

	resp, err := s.client.DoRequest(ctx, http.MethodGet, link, nil, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	page, err := parsePage(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrFetch, err)
	}

	return page.Title + "\n" + page.Description + "\n" + page.Body, nil
}
