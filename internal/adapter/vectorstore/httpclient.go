package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/promptforge/promptforge/internal/domain"
)

const (
	httpTimeout   = 30 * time.Second
	retryAttempts = 4
	retryBase     = 500 * time.Millisecond
)

// HTTPStore talks to a remote similarity-search service that embeds
// documents server-side. Transient failures (5xx, 429, transport errors)
// are retried with exponential backoff.
type HTTPStore struct {
	baseURL    string
	collection string
	client     *http.Client
}

// NewHTTPStore creates an HTTPStore for the given service URL and
// collection.
func NewHTTPStore(baseURL, collection string) *HTTPStore {
	return &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

type addRequest struct {
	Documents []storedChunk `json:"documents"`
}

type addResponse struct {
	IDs []string `json:"ids"`
}

type storedChunk struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type searchRequest struct {
	Query  string            `json:"query"`
	TopK   int               `json:"topK"`
	Filter map[string]string `json:"filter,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Document storedChunk `json:"document"`
		Score    float64     `json:"score"`
	} `json:"results"`
}

type deleteRequest struct {
	IDs    []string          `json:"ids,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type countResponse struct {
	Count int `json:"count"`
}

// AddDocuments indexes chunks in the remote collection.
func (h *HTTPStore) AddDocuments(ctx context.Context, chunks []domain.DocumentChunk) ([]string, error) {
	payload := addRequest{Documents: make([]storedChunk, 0, len(chunks))}
	for _, chunk := range chunks {
		payload.Documents = append(payload.Documents, storedChunk{
			ID:       chunk.ID,
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
		})
	}

	var resp addResponse
	if err := h.do(ctx, http.MethodPost, h.path("documents"), payload, &resp); err != nil {
		return nil, fmt.Errorf("adding documents: %w", err)
	}
	return resp.IDs, nil
}

// Search queries the remote collection.
func (h *HTTPStore) Search(ctx context.Context, query string, topK int, filter map[string]string) ([]domain.SearchResult, error) {
	var resp searchResponse
	err := h.do(ctx, http.MethodPost, h.path("search"), searchRequest{
		Query:  query,
		TopK:   topK,
		Filter: filter,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", h.collection, err)
	}

	results := make([]domain.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, domain.SearchResult{
			Chunk: domain.DocumentChunk{
				ID:       r.Document.ID,
				Content:  r.Document.Content,
				Metadata: r.Document.Metadata,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

// Delete removes chunks by ID.
func (h *HTTPStore) Delete(ctx context.Context, ids []string) error {
	var resp deleteResponse
	if err := h.do(ctx, http.MethodPost, h.path("delete"), deleteRequest{IDs: ids}, &resp); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// DeleteByMetadata removes chunks matching the filter.
func (h *HTTPStore) DeleteByMetadata(ctx context.Context, filter map[string]string) (int, error) {
	var resp deleteResponse
	if err := h.do(ctx, http.MethodPost, h.path("delete"), deleteRequest{Filter: filter}, &resp); err != nil {
		return 0, fmt.Errorf("deleting by metadata: %w", err)
	}
	return resp.Deleted, nil
}

// Count returns the size of the remote collection.
func (h *HTTPStore) Count(ctx context.Context) (int, error) {
	var resp countResponse
	if err := h.do(ctx, http.MethodGet, h.path("count"), nil, &resp); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return resp.Count, nil
}

func (h *HTTPStore) path(op string) string {
	return fmt.Sprintf("%s/collections/%s/%s", h.baseURL, h.collection, op)
}

// do executes one request with retry on transient failures.
func (h *HTTPStore) do(ctx context.Context, method, url string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(retryAttempts, retry.NewExponential(retryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("search service returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("search service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
}
