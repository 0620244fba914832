package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/search"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/lyzr/secondbrain/common/validation"
)

// Searcher runs a semantic query in a user's namespace
type Searcher interface {
	Search(ctx context.Context, userID uuid.UUID, query string, topK int) ([]vectorstore.Match, error)
}

// SearchService answers semantic questions over a user's saved content
type SearchService struct {
	searcher Searcher
	filter   *search.Filter
}

// NewSearchService creates a new search service. filter may be nil, in which
// case filter expressions are rejected.
func NewSearchService(searcher Searcher, filter *search.Filter) *SearchService {
	return &SearchService{
		searcher: searcher,
		filter:   filter,
	}
}

// Ask returns the nearest matches for query. A non-empty filter is a CEL
// expression evaluated against each match after retrieval.
func (s *SearchService) Ask(ctx context.Context, userID uuid.UUID, query string, topK int, filter string) ([]vectorstore.Match, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(query) == "" {
		return nil, validation.FieldErrors{"query": "is required"}
	}

	filter = strings.TrimSpace(filter)
	if filter != "" {
		if s.filter == nil {
			return nil, validation.FieldErrors{"filter": "is not supported"}
		}
		// compile first so a bad expression never costs an embedding call
		if err := s.filter.Compile(filter); err != nil {
			return nil, err
		}
	}

	matches, err := s.searcher.Search(ctx, userID, query, topK)
	if err != nil {
		return nil, err
	}

	if filter == "" {
		return matches, nil
	}
	return s.filter.Apply(filter, matches)
}
