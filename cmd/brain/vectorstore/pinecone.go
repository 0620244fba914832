package vectorstore

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

// PineconeStore talks to a Pinecone index through its data plane REST API
type PineconeStore struct {
	client *clients.HTTPClient
	host   string
	apiKey string
	log    *logger.Logger
}

// NewPineconeStore creates a store for the index served at cfg.IndexHost
func NewPineconeStore(cfg config.VectorStoreConfig, client *clients.HTTPClient, log *logger.Logger) *PineconeStore {
	host := strings.TrimRight(cfg.IndexHost, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return &PineconeStore{
		client: client,
		host:   host,
		apiKey: cfg.APIKey,
		log:    log.WithComponent("pinecone-store"),
	}
}

type upsertRequest struct {
	Vectors   []Record `json:"vectors"`
	Namespace string   `json:"namespace"`
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
}

// Upsert writes one record into namespace
func (s *PineconeStore) Upsert(ctx context.Context, namespace string, record Record) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	if err := s.post(ctx, "/vectors/upsert", upsertRequest{Vectors: []Record{record}, Namespace: namespace}, nil); err != nil {
		return err
	}

	s.log.Debug("upserted vector", "namespace", namespace, "id", record.ID, "dims", len(record.Values))
	return nil
}

// Query returns the topK nearest records in namespace with their metadata
func (s *PineconeStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}

	var out queryResponse
	req := queryRequest{Namespace: namespace, Vector: vector, TopK: topK, IncludeMetadata: true}
	if err := s.post(ctx, "/query", req, &out); err != nil {
		return nil, err
	}

	if out.Matches == nil {
		out.Matches = []Match{}
	}
	return out.Matches, nil
}

// Delete removes records from namespace
func (s *PineconeStore) Delete(ctx context.Context, namespace string, ids ...string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if len(ids) == 0 {
		return nil
	}
	return s.post(ctx, "/vectors/delete", deleteRequest{IDs: ids, Namespace: namespace}, nil)
}

func (s *PineconeStore) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.client.DoRequest(ctx, http.MethodPost, s.host+path, bytes.NewReader(payload), map[string]string{
		"Api-Key":      s.apiKey,
		"Content-Type": "application/json",
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStore, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", ErrStore, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrStore, path, err)
	}
	return nil
}
