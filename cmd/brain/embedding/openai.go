package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder uses any OpenAI-compatible embeddings API through langchaingo
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	timeout  time.Duration
	log      *logger.Logger
}

// NewOpenAIEmbedder creates an embedder for an OpenAI-compatible endpoint
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, log *logger.Logger) (*OpenAIEmbedder, error) {
	token := cfg.APIKey
	if token == "" {
		// local OpenAI-compatible servers accept any token
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.APIURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return newOpenAIEmbedder(embedder, cfg.Timeout, log), nil
}

func newOpenAIEmbedder(embedder embeddings.Embedder, timeout time.Duration, log *logger.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		embedder: embedder,
		timeout:  timeout,
		log:      log.WithComponent("openai-embedder"),
	}
}

// Embed returns the vector for text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.log.Error("failed to generate embedding", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty result", ErrEmbedding)
	}
	return vectors[0], nil
}
