// Package embedding turns extracted text into dense vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/lyzr/secondbrain/common/clients"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
)

// ErrEmbedding is returned when the provider answers without a usable vector
var ErrEmbedding = errors.New("embedding error")

// InputRole is the fixed input type sent to the model. Stored content and
// ask queries are embedded the same way so they share one vector space.
const InputRole = "passage"

// Embedder generates a vector for a single text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder selected by cfg.Provider
func New(cfg config.EmbeddingConfig, log *logger.Logger) (Embedder, error) {
	switch cfg.Provider {
	case "pinecone":
		client := clients.NewHTTPClient(clients.Options{Timeout: cfg.Timeout}, log)
		return NewPineconeEmbedder(cfg, client, log), nil
	case "openai":
		return NewOpenAIEmbedder(cfg, log)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
