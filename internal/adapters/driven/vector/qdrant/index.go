// Package qdrant provides a VectorIndex backed by the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout bounds every REST call.
const DefaultTimeout = 15 * time.Second

// Payload keys stored on each point.
const (
	payloadContent = "content"
	payloadUser    = domain.MetaUser
)

// Config holds Qdrant connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int

	Timeout time.Duration
}

// Index stores chunks as Qdrant points with a flat payload.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// New creates a Qdrant index. No request is made until EnsureIndex.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		cfg.URL = domain.DefaultQdrantURL
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: qdrant needs the embedding dimensions", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type collectionInfo struct {
	Result struct {
		PayloadSchema map[string]struct {
			DataType string `json:"data_type"`
		} `json:"payload_schema"`
	} `json:"result"`
}

// EnsureIndex creates the collection and the keyword index on the user
// field when missing. The outcome is read from the collection info rather
// than inferred from an error.
func (ix *Index) EnsureIndex(ctx context.Context) (domain.IndexOutcome, error) {
	var info collectionInfo
	status, err := ix.do(ctx, http.MethodGet, ix.collectionPath(""), nil, &info)
	switch {
	case status == http.StatusNotFound:
		logger.Debug("Creating qdrant collection %s (%d dims)", ix.collection, ix.dimensions)
		body := map[string]any{
			"vectors": map[string]any{"size": ix.dimensions, "distance": "Cosine"},
		}
		status, err := ix.do(ctx, http.MethodPut, ix.collectionPath(""), body, nil)
		switch {
		case status == http.StatusConflict:
			// Created concurrently between the GET and the PUT.
			if _, err := ix.do(ctx, http.MethodGet, ix.collectionPath(""), nil, &info); err != nil {
				return "", fmt.Errorf("get collection: %w", err)
			}
			if ix.hasUserIndex(info) {
				return domain.IndexAlreadyPresent, nil
			}
		case err != nil:
			return "", fmt.Errorf("create collection: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("get collection: %w", err)
	default:
		if ix.hasUserIndex(info) {
			return domain.IndexAlreadyPresent, nil
		}
	}

	body := map[string]any{"field_name": payloadUser, "field_schema": "keyword"}
	if _, err := ix.do(ctx, http.MethodPut, ix.collectionPath("/index?wait=true"), body, nil); err != nil {
		return "", fmt.Errorf("create user index: %w", err)
	}
	return domain.IndexCreated, nil
}

func (ix *Index) hasUserIndex(info collectionInfo) bool {
	field, ok := info.Result.PayloadSchema[payloadUser]
	return ok && field.DataType == "keyword"
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes the chunks and waits for them to be searchable.
func (ix *Index) Upsert(ctx context.Context, chunks []domain.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]point, len(chunks))
	for i, c := range chunks {
		if c.Chunk.User() == "" {
			return fmt.Errorf("%w: chunk %s has no user", domain.ErrInvalidInput, c.Chunk.ID)
		}
		if len(c.Embedding) != ix.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dims, collection has %d",
				domain.ErrInvalidInput, c.Chunk.ID, len(c.Embedding), ix.dimensions)
		}
		payload := make(map[string]any, len(c.Chunk.Metadata)+1)
		for k, v := range c.Chunk.Metadata {
			payload[k] = v
		}
		payload[payloadContent] = c.Chunk.Content
		points[i] = point{ID: c.Chunk.ID, Vector: c.Embedding, Payload: payload}
	}

	if _, err := ix.do(ctx, http.MethodPut, ix.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search runs a filtered similarity search. Returned payloads are checked
// against user again before they leave the adapter.
func (ix *Index) Search(ctx context.Context, query []float32, k int, user string) ([]domain.ChunkHit, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: search requires a user", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = domain.DefaultRetrievalK
	}

	body := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": payloadUser, "match": map[string]any{"value": user}},
			},
		},
	}

	var resp searchResponse
	status, err := ix.do(ctx, http.MethodPost, ix.collectionPath("/points/search"), body, &resp)
	if status == http.StatusNotFound {
		return []domain.ChunkHit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	hits := make([]domain.ChunkHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		if owner, _ := r.Payload[payloadUser].(string); owner != user {
			logger.Warn("qdrant returned a point outside the user filter, dropping it")
			continue
		}
		hits = append(hits, domain.ChunkHit{Chunk: chunkFromPayload(fmt.Sprint(r.ID), r.Payload), Score: r.Score})
	}
	return hits, nil
}

func chunkFromPayload(id string, payload map[string]any) domain.Chunk {
	content, _ := payload[payloadContent].(string)
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == payloadContent {
			continue
		}
		// JSON numbers decode as float64.
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			v = int(f)
		}
		meta[k] = v
	}

	position, _ := meta[domain.MetaPosition].(int)
	key, _ := meta[domain.MetaDocumentKey].(string)
	return domain.Chunk{ID: id, DocumentKey: key, Content: content, Position: position, Metadata: meta}
}

// Close releases resources.
func (ix *Index) Close() error {
	ix.client.CloseIdleConnections()
	return nil
}

func (ix *Index) collectionPath(suffix string) string {
	return ix.baseURL + "/collections/" + url.PathEscape(ix.collection) + suffix
}

// do sends a JSON request and decodes the response into out when non-nil.
// The status code is returned even on error so callers can branch on 404.
func (ix *Index) do(ctx context.Context, method, target string, body, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}

	resp, err := ix.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // Body is only used in the error.
		return resp.StatusCode, fmt.Errorf("%w: qdrant %s %s: %s: %s",
			domain.ErrVectorIndexUnavailable, method, req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
