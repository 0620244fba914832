// Package vectorstore persists content embeddings in per-user namespaces.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/lyzr/secondbrain/common/clients"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
)

var (
	// ErrNamespaceRequired is returned for calls without a namespace
	ErrNamespaceRequired = errors.New("namespace is required")
	// ErrStore wraps failures talking to the backing index
	ErrStore = errors.New("vector store error")
)

// Record is one embedding and the metadata stored alongside it
type Record struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match is a query hit
type Match struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Store is a namespaced vector index
type Store interface {
	// Upsert writes record, overwriting any record with the same id
	Upsert(ctx context.Context, namespace string, record Record) error
	// Query returns up to topK matches ordered by score, best first
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
	// Delete removes records by id; unknown ids are ignored
	Delete(ctx context.Context, namespace string, ids ...string) error
}

// New builds the store selected by cfg.Backend
func New(cfg config.VectorStoreConfig, log *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case "pinecone":
		client := clients.NewHTTPClient(clients.Options{Timeout: cfg.Timeout}, log)
		return NewPineconeStore(cfg, client, log), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Backend)
	}
}
