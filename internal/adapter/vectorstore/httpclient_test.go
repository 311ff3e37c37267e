package vectorstore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/adapter/vectorstore"
	"github.com/promptforge/promptforge/internal/domain"
)

func TestHTTPStore_Search(t *testing.T) {
	t.Run("decodes results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/collections/docs/search", r.URL.Path)

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "validation", req["query"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{
						"document": map[string]interface{}{
							"id":       "g1",
							"content":  "validate inputs",
							"metadata": map[string]string{"doc_type": domain.DocTypeSecurityGuideline},
						},
						"score": 0.83,
					},
				},
			})
		}))
		defer server.Close()

		store := vectorstore.NewHTTPStore(server.URL, "docs")

		results, err := store.Search(context.Background(), "validation", 5, nil)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "g1", results[0].Chunk.ID)
		assert.Equal(t, 0.83, results[0].Score)
		assert.Equal(t, domain.DocTypeSecurityGuideline, results[0].Chunk.Metadata["doc_type"])
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
		}))
		defer server.Close()

		store := vectorstore.NewHTTPStore(server.URL, "docs")

		_, err := store.Search(context.Background(), "anything", 5, nil)

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("bad filter"))
		}))
		defer server.Close()

		store := vectorstore.NewHTTPStore(server.URL, "docs")

		_, err := store.Search(context.Background(), "anything", 5, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestHTTPStore_AddAndDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/docs/documents":
			json.NewEncoder(w).Encode(map[string]interface{}{"ids": []string{"x1"}})
		case "/collections/docs/delete":
			json.NewEncoder(w).Encode(map[string]interface{}{"deleted": 2})
		case "/collections/docs/count":
			json.NewEncoder(w).Encode(map[string]interface{}{"count": 7})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := vectorstore.NewHTTPStore(server.URL, "docs")
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, []domain.DocumentChunk{{ID: "x1", Content: "text"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x1"}, ids)

	deleted, err := store.DeleteByMetadata(ctx, map[string]string{"doc_id": "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
