package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lyzr/secondbrain/common/clients"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
)

const pineconeAPIVersion = "2025-01"

// PineconeEmbedder calls the Pinecone inference embed endpoint
type PineconeEmbedder struct {
	client *clients.HTTPClient
	apiURL string
	apiKey string
	model  string
	log    *logger.Logger
}

// NewPineconeEmbedder creates an embedder for the hosted inference API
func NewPineconeEmbedder(cfg config.EmbeddingConfig, client *clients.HTTPClient, log *logger.Logger) *PineconeEmbedder {
	model := cfg.Model
	if model == "" {
		model = config.DefaultEmbeddingModel
	}
	return &PineconeEmbedder{
		client: client,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey: cfg.APIKey,
		model:  model,
		log:    log.WithComponent("pinecone-embedder"),
	}
}

type embedParameters struct {
	InputType string `json:"input_type"`
	Truncate  string `json:"truncate"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model      string          `json:"model"`
	Parameters embedParameters `json:"parameters"`
	Inputs     []embedInput    `json:"inputs"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

// Embed returns the vector for text. Over-long input is truncated at the end.
func (e *PineconeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{
		Model:      e.model,
		Parameters: embedParameters{InputType: InputRole, Truncate: "END"},
		Inputs:     []embedInput{{Text: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	resp, err := e.client.DoRequest(ctx, http.MethodPost, e.apiURL+"/embed", bytes.NewReader(payload), map[string]string{
		"Api-Key":                e.apiKey,
		"Content-Type":           "application/json",
		"X-Pinecone-API-Version": pineconeAPIVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbedding, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEmbedding, err)
	}

	if len(out.Data) == 0 || len(out.Data[0].Values) == 0 {
		return nil, fmt.Errorf("%w: response carried no vector", ErrEmbedding)
	}

	e.log.Debug("generated embedding", "dims", len(out.Data[0].Values), "chars", len(text))
	return out.Data[0].Values, nil
}
